package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/geometry_source/utils"
)

type GameObject struct {
	handle Handle
	scene  *Scene

	Name     string
	Active   bool
	Parent   Handle
	Children []Handle

	LocalPosition mgl32.Vec3
	LocalRotation mgl32.Quat
	LocalScale    mgl32.Vec3

	// components, nil when absent
	MeshFilter           *MeshFilter
	MeshRenderer         *MeshRenderer
	SkinnedMeshRenderer  *SkinnedMeshRenderer
	Light                *Light
	Link                 *Link
	TextCanvas           *TextCanvas
	SkeletonRoot         *SkeletonRoot
	StreamableRoot       *StreamableRoot
	StreamableProperties *StreamableProperties
	StreamableNode       *StreamableNode
	Animator             *Animator
	MeshTracker          *MeshTracker
}

func (g *GameObject) ObjectName() string { return g.Name }
func (g *GameObject) TypeName() string   { return "GameObject" }

func (g *GameObject) Handle() Handle {
	return g.handle
}

func (g *GameObject) Scene() *Scene {
	return g.scene
}

func (g *GameObject) ParentObject() *GameObject {
	if g.scene == nil {
		return nil
	}
	return g.scene.GameObject(g.Parent)
}

func (g *GameObject) removeChild(h Handle) {
	g.Children = removeHandle(g.Children, h)
}

// ActiveInHierarchy is false when the object or any ancestor is inactive
func (g *GameObject) ActiveInHierarchy() bool {
	for o := g; o != nil; o = o.ParentObject() {
		if !o.Active {
			return false
		}
	}
	return true
}

func (g *GameObject) LocalMatrix() mgl32.Mat4 {
	return utils.ComposeMatrix(g.LocalPosition, g.LocalRotation, g.LocalScale)
}

func (g *GameObject) GlobalMatrix() mgl32.Mat4 {
	m := g.LocalMatrix()
	for p := g.ParentObject(); p != nil; p = p.ParentObject() {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// GlobalTransform decomposes the world matrix
func (g *GameObject) GlobalTransform() (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	return utils.DecomposeMatrix(g.GlobalMatrix())
}

// Path is the slash separated list of names from the root
func (g *GameObject) Path() string {
	path := g.Name
	for p := g.ParentObject(); p != nil; p = p.ParentObject() {
		path = p.Name + "/" + path
	}
	return path
}

// FindInParents walks from the object itself up to the root
func (g *GameObject) FindInParents(pred func(*GameObject) bool) *GameObject {
	for o := g; o != nil; o = o.ParentObject() {
		if pred(o) {
			return o
		}
	}
	return nil
}

// IsDescendantOf includes the object itself
func (g *GameObject) IsDescendantOf(ancestor Handle) bool {
	return g.FindInParents(func(o *GameObject) bool { return o.handle == ancestor }) != nil
}

func (g *GameObject) ChildObjects() []*GameObject {
	result := make([]*GameObject, 0, len(g.Children))
	for _, c := range g.Children {
		if child := g.scene.GameObject(c); child != nil {
			result = append(result, child)
		}
	}
	return result
}
