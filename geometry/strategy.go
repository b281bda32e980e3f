package geometry

import (
	"path/filepath"

	"github.com/mogaika/geometry_source/config"
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/mat"
	"github.com/mogaika/geometry_source/mesh"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/txr"
	"github.com/mogaika/geometry_source/utils"
)

// strategy decides what happens once an asset has its id: the author
// strategy encodes and stores it, the runtime strategy only expects to
// find it in the store
type strategy interface {
	mesh(s *Source, m *scene.Mesh, id interop.ResourceID, path string, verify bool) bool
	material(s *Source, m *scene.Material, owner *scene.GameObject, id interop.ResourceID, path string, forceMask interop.ForceMask) bool
	texture(s *Source, t *scene.Texture, owner *scene.GameObject, id interop.ResourceID, path string, forceMask interop.ForceMask, conversion interop.TextureConversion) interop.ResourceID
	font(s *Source, f *scene.Font, id interop.ResourceID, path string, size int32) bool
}

func newStrategy(mode config.Mode) strategy {
	if mode == config.ModeRuntime {
		return runtimeStrategy{}
	}
	return authorStrategy{}
}

var meshAxes = []interop.AxesStandard{interop.AxesEngineering, interop.AxesGl}

type authorStrategy struct{}

func (authorStrategy) mesh(s *Source, m *scene.Mesh, id interop.ResourceID, path string, verify bool) bool {
	lastModified := s.assetWriteTime(m.Asset)
	for _, axes := range meshAxes {
		encoded, err := mesh.Encode(m, axes)
		if err != nil {
			utils.LogError("[geometry] Failed to encode mesh %q (%v): %v", m.Name, axes, err)
			return false
		}
		encoded.Path = path
		if !s.store.StoreMesh(id, path, lastModified, encoded, axes, verify) {
			utils.LogError("[geometry] Failed to store mesh %q (%v) as %d", m.Name, axes, id)
			return false
		}
	}
	return true
}

// textureAdder lets the material encoder pull textures in under the
// source lock already held
type textureAdder struct {
	s         *Source
	owner     *scene.GameObject
	forceMask interop.ForceMask
}

func (ta textureAdder) AddTexture(h scene.Handle, conversion interop.TextureConversion) interop.ResourceID {
	if h.IsNil() {
		return 0
	}
	return ta.s.addTexture(h, ta.owner, ta.forceMask, conversion)
}

func (authorStrategy) material(s *Source, m *scene.Material, owner *scene.GameObject, id interop.ResourceID, path string, forceMask interop.ForceMask) bool {
	encoded := mat.Encode(m, textureAdder{s: s, owner: owner, forceMask: forceMask}, mat.Options{
		TreatTransparentAsDoubleSided: s.settings.Extraction.TreatTransparentAsDoubleSided,
	})
	encoded.Path = path
	if !s.store.StoreMaterial(id, path, s.assetWriteTime(m.Asset), encoded) {
		utils.LogError("[geometry] Failed to store material %q as %d", m.Name, id)
		return false
	}
	return true
}

// textureTemplate carries the layout of the source into the record;
// size, mips and format are settled when the queue is flushed
func textureTemplate(t *scene.Texture, name, path string) *interop.Texture {
	tex := interop.NewTexture(name)
	tex.Path = path
	tex.Width = uint32(t.Width)
	tex.Height = uint32(t.Height)

	switch t.Kind {
	case scene.Texture2D:
		tex.MipCount = uint32(max(1, t.MipCount))
	case scene.Texture2DArray:
		tex.ArrayCount = uint32(max(1, t.Depth))
	case scene.Texture3D:
		tex.Depth = uint32(max(1, t.Depth))
	case scene.TextureCube:
		tex.ArrayCount = 6
		tex.Cubemap = true
	case scene.TextureRender:
		if t.RenderCube {
			tex.ArrayCount = 6
			tex.Cubemap = true
		}
		tex.MipCount = uint32(max(1, t.MipCount))
	default:
		return nil
	}
	return tex
}

func (authorStrategy) texture(s *Source, t *scene.Texture, owner *scene.GameObject, id interop.ResourceID, path string, forceMask interop.ForceMask, conversion interop.TextureConversion) interop.ResourceID {
	if s.stored(s.store.IsTextureStored, id) && !forceMask.Has(interop.FORCE_SUBRESOURCES) {
		return id
	}
	for _, e := range s.textures.Entries() {
		if e.ID == id {
			return id
		}
	}

	name := t.Name
	if conversion != interop.CONVERT_NOTHING {
		name += "_" + conversion.String()
	}
	tmpl := textureTemplate(t, name, path)
	if tmpl == nil {
		utils.LogError("[geometry] Texture %q has an unsupported kind %d", t.Name, t.Kind)
		return 0
	}

	var ownerHandle scene.Handle
	if owner != nil {
		ownerHandle = owner.Handle()
	}
	s.textures.Enqueue(&txr.Entry{
		ID:           id,
		Path:         path,
		LastModified: s.assetWriteTime(t.Asset),
		Source:       t,
		Template:     tmpl,
		Conversion:   conversion,
		Owner:        ownerHandle,
	})
	return id
}

func (authorStrategy) font(s *Source, f *scene.Font, id interop.ResourceID, path string, size int32) bool {
	fontFile := filepath.Join(s.settings.AssetRoot, filepath.FromSlash(f.Asset.Path))
	if !s.store.StoreFont(id, fontFile, path, s.assetWriteTime(f.Asset), size) {
		utils.LogError("[geometry] Failed to store font %q size %d", f.Name, size)
		return false
	}
	return true
}

type runtimeStrategy struct{}

func (runtimeStrategy) mesh(s *Source, m *scene.Mesh, id interop.ResourceID, path string, verify bool) bool {
	if !s.store.IsMeshStored(id) && !s.store.EnsureResourceIsLoaded(id) {
		utils.LogError("[geometry] Mesh missing! Mesh %q (%s) was not stored", m.Name, path)
		return false
	}
	return true
}

func (runtimeStrategy) material(s *Source, m *scene.Material, owner *scene.GameObject, id interop.ResourceID, path string, forceMask interop.ForceMask) bool {
	if !s.store.IsMaterialStored(id) && !s.store.EnsureResourceIsLoaded(id) {
		utils.LogWarn("[geometry] Material %q has not been extracted, but is being used on streamed geometry", m.Name)
		return false
	}
	return true
}

func (runtimeStrategy) texture(s *Source, t *scene.Texture, owner *scene.GameObject, id interop.ResourceID, path string, forceMask interop.ForceMask, conversion interop.TextureConversion) interop.ResourceID {
	if s.store.EnsureResourceIsLoaded(id) {
		return id
	}
	utils.LogWarn("[geometry] Texture %q has not been extracted, but is being used on streamed geometry", t.Name)
	return 0
}

func (runtimeStrategy) font(s *Source, f *scene.Font, id interop.ResourceID, path string, size int32) bool {
	if !s.store.EnsureResourceIsLoaded(id) {
		utils.LogWarn("[geometry] Font %q has not been extracted", f.Name)
		return false
	}
	return true
}
