// Package scene is the in-memory scene graph extraction walks over:
// game objects with components, and the source assets they reference.
// Everything is addressed by Handle.
package scene

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/geometry_source/utils"
)

// Object is anything a handle can point to
type Object interface {
	ObjectName() string
	TypeName() string
}

type Scene struct {
	Name string
	Path string

	objects []Object
	Roots   []Handle
	// lightmap textures, indexed by MeshRenderer.LightmapIndex
	Lightmaps []Handle

	names utils.RandomNameGenerator
}

func NewScene(name string) *Scene {
	return &Scene{Name: name}
}

func (s *Scene) Add(o Object) Handle {
	s.objects = append(s.objects, o)
	h := Handle(len(s.objects))
	if g, ok := o.(*GameObject); ok {
		g.handle = h
		g.scene = s
	}
	return h
}

func (s *Scene) Get(h Handle) Object {
	if h.IsNil() || int(h) > len(s.objects) {
		return nil
	}
	return s.objects[h-1]
}

func (s *Scene) Alive(h Handle) bool {
	return s.Get(h) != nil
}

// Remove invalidates a handle, detaching game objects from their parent
func (s *Scene) Remove(h Handle) {
	o := s.Get(h)
	if o == nil {
		return
	}
	if g, ok := o.(*GameObject); ok {
		for _, c := range g.Children {
			s.Remove(c)
		}
		if p := s.GameObject(g.Parent); p != nil {
			p.removeChild(h)
		} else {
			s.Roots = removeHandle(s.Roots, h)
		}
	}
	s.objects[h-1] = nil
}

func (s *Scene) Len() int {
	return len(s.objects)
}

func (s *Scene) ObjectName(h Handle) string {
	if o := s.Get(h); o != nil {
		return o.ObjectName()
	}
	return ""
}

func (s *Scene) GameObject(h Handle) *GameObject {
	g, _ := s.Get(h).(*GameObject)
	return g
}

func (s *Scene) Mesh(h Handle) *Mesh {
	m, _ := s.Get(h).(*Mesh)
	return m
}

func (s *Scene) Material(h Handle) *Material {
	m, _ := s.Get(h).(*Material)
	return m
}

func (s *Scene) Texture(h Handle) *Texture {
	t, _ := s.Get(h).(*Texture)
	return t
}

func (s *Scene) Font(h Handle) *Font {
	f, _ := s.Get(h).(*Font)
	return f
}

func (s *Scene) AnimationClip(h Handle) *AnimationClip {
	c, _ := s.Get(h).(*AnimationClip)
	return c
}

// NewGameObject creates an object under parent, nil parent makes a root
func (s *Scene) NewGameObject(name string, parent Handle) *GameObject {
	if name == "" {
		name = s.names.RandomName()
	} else {
		s.names.Reserve(name)
	}
	g := &GameObject{
		Name:          name,
		Active:        true,
		LocalRotation: mgl32.QuatIdent(),
		LocalScale:    mgl32.Vec3{1, 1, 1},
	}
	h := s.Add(g)
	g.Parent = parent
	if p := s.GameObject(parent); p != nil {
		p.Children = append(p.Children, h)
	} else {
		g.Parent = NilHandle
		s.Roots = append(s.Roots, h)
	}
	return g
}

// Handles of every live object, game objects and assets
func (s *Scene) Handles() []Handle {
	hs := make([]Handle, 0, len(s.objects))
	for i, o := range s.objects {
		if o != nil {
			hs = append(hs, Handle(i+1))
		}
	}
	return hs
}

// Walk visits game objects depth-first starting at the roots
func (s *Scene) Walk(fn func(g *GameObject) bool) {
	var walk func(h Handle) bool
	walk = func(h Handle) bool {
		g := s.GameObject(h)
		if g == nil {
			return true
		}
		if !fn(g) {
			return false
		}
		for _, c := range g.Children {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	for _, r := range s.Roots {
		if !walk(r) {
			return
		}
	}
}

// FindGameObject resolves a slash separated object path like "Root/Arm/Hand"
func (s *Scene) FindGameObject(path string) *GameObject {
	parts := strings.Split(path, "/")
	candidates := s.Roots
	var found *GameObject
	for _, part := range parts {
		found = nil
		for _, h := range candidates {
			if g := s.GameObject(h); g != nil && g.Name == part {
				found = g
				break
			}
		}
		if found == nil {
			return nil
		}
		candidates = found.Children
	}
	return found
}

func removeHandle(list []Handle, h Handle) []Handle {
	for i, v := range list {
		if v == h {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
