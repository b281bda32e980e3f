// Package skel derives bone hierarchies from skinned mesh renderers.
package skel

import (
	"github.com/pkg/errors"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/utils"
)

type Bone struct {
	Object *scene.GameObject
	// index into the bone list, -1 for the root
	Parent int
	// relative to the parent bone, intermediate transforms folded in
	Local interop.Transform
}

// Hierarchy lists root and every descendant, depth first
func Hierarchy(root *scene.GameObject) []*scene.GameObject {
	result := []*scene.GameObject{root}
	for _, child := range root.ChildObjects() {
		result = append(result, Hierarchy(child)...)
	}
	return result
}

// TopmostSkeletonRoot finds the object a skinned mesh's skeleton hangs from:
// a SkeletonRoot above the root bone, else the ancestor of the root bone
// that is a sibling of the mesh, else the root bone itself
func TopmostSkeletonRoot(g *scene.GameObject) *scene.GameObject {
	smr := g.SkinnedMeshRenderer
	if smr == nil {
		return nil
	}
	rootBone := g.Scene().GameObject(smr.RootBone)
	if rootBone == nil {
		return nil
	}
	if r := rootBone.FindInParents(func(o *scene.GameObject) bool { return o.SkeletonRoot != nil }); r != nil {
		return r
	}
	for p := rootBone; p != nil; p = p.ParentObject() {
		if p.Parent == g.Parent {
			return p
		}
	}
	return rootBone
}

// AssetPath names a skeleton, which has no file of its own
func AssetPath(root *scene.GameObject) string {
	if s := root.Scene(); s != nil && s.Name != "" {
		return s.Name + "." + root.Name
	}
	return root.Name
}

// BoneSet collects the bones every skinned mesh under root references.
// Empty when nothing references root, meaning every transform is a bone.
func BoneSet(s *scene.Scene, root *scene.GameObject) map[scene.Handle]bool {
	set := make(map[scene.Handle]bool)
	s.Walk(func(g *scene.GameObject) bool {
		if g.SkinnedMeshRenderer == nil || TopmostSkeletonRoot(g) != root {
			return true
		}
		for _, b := range g.SkinnedMeshRenderer.Bones {
			set[b] = true
		}
		if !g.SkinnedMeshRenderer.RootBone.IsNil() {
			set[g.SkinnedMeshRenderer.RootBone] = true
		}
		return true
	})
	return set
}

func localTransform(g *scene.GameObject) interop.Transform {
	return interop.Transform{
		Position: g.LocalPosition,
		Rotation: g.LocalRotation,
		Scale:    g.LocalScale,
	}
}

// Build walks the hierarchy under root depth first and keeps root plus
// every object isBone accepts. Each kept bone gets its transform relative
// to the closest kept ancestor: rotation and position of the skipped
// transforms are pushed into the bone, scale is the bone's own.
func Build(root *scene.GameObject, isBone func(*scene.GameObject) bool) ([]Bone, error) {
	index := make(map[scene.Handle]int)
	var bones []Bone

	for _, g := range Hierarchy(root) {
		if g != root && !isBone(g) {
			continue
		}
		bone := Bone{Object: g, Parent: -1, Local: localTransform(g)}
		if g != root {
			parent := g.ParentObject()
			for parent != nil && parent != root {
				if _, ok := index[parent.Handle()]; ok {
					break
				}
				bone.Local.Position, bone.Local.Rotation = utils.FoldTransform(
					parent.LocalPosition, parent.LocalRotation, bone.Local.Position, bone.Local.Rotation)
				parent = parent.ParentObject()
			}
			if parent == nil {
				return nil, errors.Errorf("Parent not found for bone %q", g.Name)
			}
			bone.Parent = index[parent.Handle()]
		}
		index[g.Handle()] = len(bones)
		bones = append(bones, bone)
	}
	return bones, nil
}

// JointIndices maps a renderer's bone list onto positions in bones, -1 when
// the bone is not part of the skeleton
func JointIndices(bones []Bone, rendererBones []scene.Handle) []int16 {
	index := make(map[scene.Handle]int, len(bones))
	for i, b := range bones {
		index[b.Object.Handle()] = i
	}
	result := make([]int16, len(rendererBones))
	for i, h := range rendererBones {
		if ix, ok := index[h]; ok {
			result[i] = int16(ix)
		} else {
			utils.LogWarn("[skel] Renderer bone %v is not in the skeleton", h)
			result[i] = -1
		}
	}
	return result
}
