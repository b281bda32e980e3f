package store

import (
	"github.com/pkg/errors"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/utils"
)

func (gs *GeometryStore) has(id interop.ResourceID) bool {
	if gs.loaded(id) {
		return true
	}
	_, ok := gs.unloaded[id]
	return ok
}

// Problems lists every inconsistency of the loaded resources: meshes that
// fail validation, textures whose blob disagrees with their layout and
// references to resources the store does not know
func (gs *GeometryStore) Problems() []error {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	var problems []error
	for id, e := range gs.meshes {
		for axes, m := range e.byAxes {
			if err := m.Validate(); err != nil {
				problems = append(problems, errors.Wrapf(err, "Mesh %d (%v)", id, axes))
			}
			for _, prim := range m.PrimitiveArrays {
				if prim.Material != 0 && !gs.has(prim.Material) {
					problems = append(problems, errors.Errorf("Mesh %d references missing material %d", id, prim.Material))
				}
			}
		}
	}
	for id, e := range gs.textures {
		images, err := interop.UnpackSubresources(e.tex.Data)
		if err != nil {
			problems = append(problems, errors.Wrapf(err, "Texture %d", id))
		} else if len(images) != e.tex.ImageCount() {
			problems = append(problems, errors.Errorf("Texture %d has %d subresources, layout needs %d", id, len(images), e.tex.ImageCount()))
		}
	}
	for id, e := range gs.materials {
		m := e.material
		for _, ta := range []interop.TextureAccessor{
			m.PBRMetallicRoughness.BaseColorTexture, m.PBRMetallicRoughness.MetallicRoughnessTexture,
			m.NormalTexture, m.OcclusionTexture, m.EmissiveTexture,
		} {
			if ta.Index != 0 && !gs.has(ta.Index) {
				problems = append(problems, errors.Errorf("Material %d references missing texture %d", id, ta.Index))
			}
		}
	}
	for id, n := range gs.nodes {
		if n.ParentID != 0 && !gs.has(n.ParentID) {
			problems = append(problems, errors.Errorf("Node %d %q has missing parent %d", id, n.Name, n.ParentID))
		}
		for _, mid := range n.MaterialIDs {
			if mid != 0 && !gs.has(mid) {
				problems = append(problems, errors.Errorf("Node %d %q references missing material %d", id, n.Name, mid))
			}
		}
	}
	for id, e := range gs.skeletons {
		for _, bone := range e.skeleton.BoneIDs {
			if !gs.has(bone) {
				problems = append(problems, errors.Errorf("Skeleton %d references missing bone node %d", id, bone))
			}
		}
	}
	return problems
}

// CheckStoreForErrors logs every problem, true when there were none
func (gs *GeometryStore) CheckStoreForErrors() bool {
	problems := gs.Problems()
	for _, p := range problems {
		utils.LogError("[store] %v", p)
	}
	return len(problems) == 0
}
