package geometry

import (
	"github.com/mogaika/geometry_source/config"
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/skel"
	"github.com/mogaika/geometry_source/utils"
)

// lightmap indices at or above this mean no lightmap
const lightmapIndexNone = 0xFFFE

func (s *Source) needsExtraction(nodeID interop.ResourceID, forceMask interop.ForceMask, isChildExtraction bool) bool {
	if nodeID == 0 || !s.store.IsNodeStored(nodeID) {
		return true
	}
	if !isChildExtraction && forceMask.Has(interop.FORCE_NODES) {
		return true
	}
	return isChildExtraction && forceMask.Has(interop.FORCE_HIERARCHIES)
}

func includeChildren(g *scene.GameObject) bool {
	return g.StreamableProperties == nil || g.StreamableProperties.IncludeChildren
}

func (s *Source) addNode(h scene.Handle, forceMask interop.ForceMask, isChildExtraction, verify bool) interop.ResourceID {
	g := s.scene.GameObject(h)
	if g == nil {
		utils.LogError("[geometry] Failed to extract node from %v: not a game object", h)
		return 0
	}

	nodeID := s.ids.Find(h)
	switch {
	case s.bones[h] && s.store.IsNodeStored(nodeID):
		// stored with its skeleton
	case s.needsExtraction(nodeID, forceMask, isChildExtraction):
		if nodeID = s.extractNode(g, nodeID, forceMask, verify); nodeID == 0 {
			return 0
		}
	}

	if sn := g.StreamableNode; sn != nil {
		if sn.NodeID == 0 {
			sn.NodeID = nodeID
		} else if sn.NodeID != nodeID {
			utils.LogError("[geometry] Node %q, id mismatch: %d, %d", g.Name, nodeID, sn.NodeID)
		}
	} else {
		utils.LogWarn("[geometry] Node %q has no StreamableNode", g.Name)
	}

	if includeChildren(g) {
		s.addChildNodes(g, forceMask, verify)
	}
	return nodeID
}

// extractNode builds and stores the node record of g, returning its id
func (s *Source) extractNode(g *scene.GameObject, nodeID interop.ResourceID, forceMask interop.ForceMask, verify bool) interop.ResourceID {
	node := interop.NewNode(g.Name)
	if !g.Parent.IsNil() {
		node.ParentID = s.ids.Find(g.Parent)
	}
	if root := g.FindInParents(func(o *scene.GameObject) bool { return o.StreamableRoot != nil }); root != nil {
		node.Priority = root.StreamableRoot.Priority
		node.OwnerClientID = root.StreamableRoot.OwnerClientID
	}
	if g.StreamableProperties != nil {
		node.Stationary = g.StreamableProperties.IsStationary
	}
	if node.ParentID != 0 {
		node.Transform = interop.Transform{Position: g.LocalPosition, Rotation: g.LocalRotation, Scale: g.LocalScale}
	} else {
		node.Transform.Position, node.Transform.Rotation, node.Transform.Scale = g.GlobalTransform()
	}

	if g.SkeletonRoot != nil {
		if nodeID = s.addSkeleton(g, forceMask); nodeID == 0 {
			utils.LogError("[geometry] Failed to add skeleton of %q", g.Name)
			return 0
		}
		node.DataType = interop.NodeDataSkeleton
		node.DataID = s.skeletonUids[g.SkeletonRoot.AssetPath]
		node.AnimationIDs = s.animationIDs(g)
	}

	if nodeID == 0 {
		nodeID = s.store.GenerateUid()
	}
	s.ids.Add(g.Handle(), nodeID)

	if node.DataType == interop.NodeDataInvalid {
		s.extractNodeMeshData(g, node, forceMask, verify)
	}
	if node.DataType == interop.NodeDataInvalid {
		if smr := g.SkinnedMeshRenderer; smr != nil && smr.Enabled && !smr.RootBone.IsNil() {
			s.extractNodeSkinnedMeshData(g, node, forceMask, verify)
		}
	}
	if node.DataType == interop.NodeDataInvalid {
		s.extractNodeLightData(g, node)
	}
	if g.Link != nil {
		s.extractNodeLinkData(g, node)
	}
	if g.TextCanvas != nil {
		if canvasID := s.extractTextCanvas(g); canvasID != 0 {
			node.DataType = interop.NodeDataTextCanvas
			node.DataID = canvasID
		}
	}

	// a plain transform
	if node.DataType == interop.NodeDataInvalid {
		node.DataType = interop.NodeDataNone
	}

	if !s.store.StoreNode(nodeID, node) {
		utils.LogError("[geometry] Failed to store node %d %q", nodeID, g.Name)
		return 0
	}
	return nodeID
}

// addChildNodes extracts skinned children first, so their skeletons
// exist before the bone objects are walked
func (s *Source) addChildNodes(g *scene.GameObject, forceMask interop.ForceMask, verify bool) {
	children := g.ChildObjects()
	for _, child := range children {
		if child.SkinnedMeshRenderer != nil {
			s.addNode(child.Handle(), forceMask, true, verify)
		}
	}
	for _, child := range children {
		if child.SkinnedMeshRenderer == nil {
			s.addNode(child.Handle(), forceMask, true, verify)
		}
	}
}

func (s *Source) animationIDs(g *scene.GameObject) []interop.ResourceID {
	animated := g.FindInParents(func(o *scene.GameObject) bool { return o.Animator != nil })
	if animated == nil {
		return nil
	}
	var ids []interop.ResourceID
	for _, clip := range animated.Animator.Clips {
		id := s.ids.Find(clip)
		if id == 0 {
			id = s.store.GetOrGenerateUid(s.resourcePath(clip, true))
		}
		if id == 0 {
			utils.LogError("[geometry] Failed to get an id for animation clip %q", s.scene.ObjectName(clip))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (s *Source) extractNodeMaterials(materials []scene.Handle, g *scene.GameObject, node *interop.Node, forceMask interop.ForceMask) {
	node.MaterialIDs = node.MaterialIDs[:0]
	for _, h := range materials {
		id := s.addMaterial(h, g, forceMask)
		if id == 0 {
			utils.LogWarn("[geometry] Received 0 for id of material on game object %q", g.Name)
			continue
		}
		node.MaterialIDs = append(node.MaterialIDs, id)
		if !s.store.IsMaterialStored(id) {
			utils.LogError("[geometry] Missing material %q (%d), which was added to %q", s.scene.ObjectName(h), id, g.Name)
		}
	}
}

func (s *Source) lightmapTexture(g *scene.GameObject, index int, add bool, forceMask interop.ForceMask) interop.ResourceID {
	if index < 0 || index >= lightmapIndexNone {
		return 0
	}
	if index >= len(s.scene.Lightmaps) {
		utils.LogError("[geometry] For game object %q, lightmap %d is not in the scene's lightmap list", g.Name, index)
		return 0
	}
	lightmap := s.scene.Lightmaps[index]
	id := s.ids.Find(lightmap)
	if id == 0 && add {
		if id = s.addTexture(lightmap, g, forceMask, interop.CONVERT_NOTHING); id == 0 {
			utils.LogError("[geometry] For game object %q, lightmap %d could not be added", g.Name, index)
		}
	}
	return id
}

func (s *Source) extractNodeMeshData(g *scene.GameObject, node *interop.Node, forceMask interop.ForceMask, verify bool) bool {
	mf, mr := g.MeshFilter, g.MeshRenderer
	if mf == nil || mr == nil || !mr.Enabled {
		return false
	}
	node.RenderState.LightmapScaleOffset = mr.LightmapScaleOffset
	node.RenderState.GlobalIlluminationTextureID = s.lightmapTexture(g, mr.LightmapIndex, true, forceMask)

	if s.scene.Mesh(mf.Mesh) == nil {
		// nothing local, only the tracker knows the mesh
		if g.MeshTracker != nil {
			node.DataID = s.store.PathToUid(g.MeshTracker.Path)
			node.DataType = interop.NodeDataMesh
			return true
		}
		return false
	}

	node.DataID = s.addMesh(mf.Mesh, g, forceMask, verify)
	if node.DataID == 0 {
		return false
	}
	node.DataType = interop.NodeDataMesh
	s.extractNodeMaterials(mr.Materials, g, node, forceMask)
	return true
}

func (s *Source) extractNodeSkinnedMeshData(g *scene.GameObject, node *interop.Node, forceMask interop.ForceMask, verify bool) bool {
	smr := g.SkinnedMeshRenderer
	if mr := g.MeshRenderer; mr != nil {
		node.RenderState.LightmapScaleOffset = mr.LightmapScaleOffset
		node.RenderState.GlobalIlluminationTextureID = s.lightmapTexture(g, mr.LightmapIndex, false, forceMask)
	}

	root := skel.TopmostSkeletonRoot(g)
	if root == nil {
		utils.LogError("[geometry] Skinned mesh %q has no skeleton root", g.Name)
		return false
	}
	node.SkeletonNodeID = s.addSkeleton(root, forceMask)

	meshHandle := smr.Mesh
	if s.scene.Mesh(meshHandle) == nil && g.MeshFilter != nil {
		meshHandle = g.MeshFilter.Mesh
	}
	if s.scene.Mesh(meshHandle) == nil {
		if g.MeshTracker != nil {
			node.DataID = s.store.PathToUid(g.MeshTracker.Path)
		}
	} else {
		node.DataID = s.addMesh(meshHandle, g, forceMask, verify)
	}
	if node.DataID == 0 {
		utils.LogError("[geometry] Failed to extract skinned mesh data from game object %q", g.Name)
		return false
	}
	node.DataType = interop.NodeDataMesh
	s.extractNodeMaterials(smr.Materials, g, node, forceMask)

	if bones, err := s.skeletonBones(root); err != nil {
		utils.LogError("[geometry] Skinned mesh %q: %v", g.Name, err)
	} else {
		node.JointIndices = skel.JointIndices(bones, smr.Bones)
	}
	return true
}

func (s *Source) componentID(owner scene.Handle, kind componentKind) interop.ResourceID {
	key := componentKey{owner: owner, kind: kind}
	id, ok := s.componentIDs[key]
	if !ok {
		id = s.store.GenerateUid()
		s.componentIDs[key] = id
	}
	return id
}

func (s *Source) extractNodeLightData(g *scene.GameObject, node *interop.Node) bool {
	light := g.Light
	if light == nil || !light.Enabled || !g.ActiveInHierarchy() {
		return false
	}
	node.DataID = s.componentID(g.Handle(), componentLight)
	node.DataType = interop.NodeDataLight

	colour := light.Color
	if s.settings.Extraction.ColorSpace == config.ColorSpaceLinear {
		colour = colour.Linear()
	}
	node.LightColour = colour.Scale(light.Intensity)
	node.LightType = light.Type
	node.LightRange = light.Range
	node.LightRadius = light.Range / 5
	// lights point along z
	node.LightDirection = [3]float32{0, 0, 1}
	return true
}

func (s *Source) extractNodeLinkData(g *scene.GameObject, node *interop.Node) bool {
	if g.Link == nil {
		return false
	}
	node.DataID = s.componentID(g.Handle(), componentLink)
	node.DataType = interop.NodeDataLink
	node.URL = g.Link.URL
	node.QueryURL = g.Link.QueryURL
	return true
}
