package geometry

import (
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/skel"
	"github.com/mogaika/geometry_source/utils"
)

// skeletonBones lists the bones of the skeleton hanging from root: every
// transform the skinned meshes reference, or the whole hierarchy when
// none do
func (s *Source) skeletonBones(root *scene.GameObject) ([]skel.Bone, error) {
	set := skel.BoneSet(s.scene, root)
	return skel.Build(root, func(g *scene.GameObject) bool {
		return len(set) == 0 || set[g.Handle()]
	})
}

// addSkeleton stores the skeleton asset and its bone nodes, returning the
// id of the root bone node. Skeletons shared by several meshes are added
// once.
func (s *Source) addSkeleton(root *scene.GameObject, forceMask interop.ForceMask) interop.ResourceID {
	if root.SkeletonRoot == nil || root.SkeletonRoot.AssetPath == "" || forceMask != interop.FORCE_NOTHING {
		if root.SkeletonRoot == nil {
			root.SkeletonRoot = &scene.SkeletonRoot{}
		}
		root.SkeletonRoot.AssetPath = skel.AssetPath(root)
	}
	assetPath := root.SkeletonRoot.AssetPath

	rootNodeID := s.ids.Find(root.Handle())
	if rootNodeID != 0 && s.store.IsNodeStored(rootNodeID) && !forceMask.Has(interop.FORCE_SUBRESOURCES) {
		return rootNodeID
	}

	skeletonID := s.skeletonUids[assetPath]
	if skeletonID == 0 {
		skeletonID = s.store.GenerateUid()
		s.skeletonUids[assetPath] = skeletonID
	}

	// every object under the root gets an id, bone or not
	for _, g := range skel.Hierarchy(root) {
		if s.ids.Find(g.Handle()) == 0 {
			s.ids.Add(g.Handle(), s.store.GenerateUid())
		}
		if g.StreamableNode == nil {
			g.StreamableNode = &scene.StreamableNode{}
		}
	}
	rootNodeID = s.ids.Find(root.Handle())

	bones, err := s.skeletonBones(root)
	if err != nil {
		utils.LogError("[geometry] Unable to extract skeleton %q: %v", assetPath, err)
		return 0
	}

	skeleton := &interop.Skeleton{
		Name:          root.Name,
		Path:          assetPath,
		RootTransform: interop.IdentityTransform(),
	}
	if parent := root.ParentObject(); parent != nil {
		skeleton.RootTransform = interop.Transform{
			Position: parent.LocalPosition,
			Rotation: parent.LocalRotation,
			Scale:    parent.LocalScale,
		}
	}

	for i, bone := range bones {
		id := s.ids.Find(bone.Object.Handle())
		skeleton.BoneIDs = append(skeleton.BoneIDs, id)
		if i == 0 {
			// the root bone is a regular node of the hierarchy
			continue
		}
		if !s.createBone(bone, bones, id, forceMask) {
			return 0
		}
	}

	if !s.store.StoreSkeleton(skeletonID, assetPath, 0, skeleton) {
		utils.LogError("[geometry] Failed to store skeleton %q", assetPath)
		return 0
	}
	return rootNodeID
}

// createBone stores a bone as a data-less node under its parent bone
func (s *Source) createBone(bone skel.Bone, bones []skel.Bone, id interop.ResourceID, forceMask interop.ForceMask) bool {
	if s.bones[bone.Object.Handle()] && s.store.IsNodeStored(id) && !forceMask.Has(interop.FORCE_SUBRESOURCES) {
		return true
	}
	if bone.Parent < 0 {
		utils.LogError("[geometry] Unable to extract bone: parent not found for %q", bone.Object.Name)
		return false
	}
	parentID := s.ids.Find(bones[bone.Parent].Object.Handle())
	if parentID == 0 {
		utils.LogError("[geometry] Unable to extract bone: parent not found for %q", bone.Object.Name)
		return false
	}

	node := interop.NewNode(bone.Object.Name)
	node.Priority = 0
	node.ParentID = parentID
	node.Transform = bone.Local
	node.DataType = interop.NodeDataNone
	if !s.store.StoreNode(id, node) {
		utils.LogError("[geometry] Failed to store bone %d %q", id, bone.Object.Name)
		return false
	}
	s.bones[bone.Object.Handle()] = true
	return true
}
