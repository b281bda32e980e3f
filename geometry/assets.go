package geometry

import (
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/utils"
)

// canvases are not assets, they are stored under this folder by object name
const textCanvasFolder = "Text/"

// stored hydrates a resource LoadFromDisk left on disk before asking
func (s *Source) stored(isStored func(interop.ResourceID) bool, id interop.ResourceID) bool {
	if id == 0 {
		return false
	}
	if isStored(id) {
		return true
	}
	return s.store.EnsureResourceIsLoaded(id) && isStored(id)
}

func (s *Source) addMesh(h scene.Handle, owner *scene.GameObject, forceMask interop.ForceMask, verify bool) interop.ResourceID {
	m := s.scene.Mesh(h)
	if m == nil {
		utils.LogError("[geometry] Mesh extraction failure! %v is not a mesh", h)
		return 0
	}
	forceSubresources := forceMask.Has(interop.FORCE_SUBRESOURCES)
	path := s.resourcePathOrFallback(h, owner, forceSubresources)
	if path == "" {
		return 0
	}
	if !m.Readable {
		utils.LogWarn("[geometry] Failed to extract mesh %q! Mesh is unreadable", m.Name)
		return 0
	}

	id := s.ids.Find(h)
	if s.stored(s.store.IsMeshStored, id) && !forceSubresources {
		return id
	}
	if id == 0 {
		id = s.store.GetOrGenerateUid(path)
	}
	s.ids.Add(h, id)

	if !s.strategy.mesh(s, m, id, path, verify) {
		return 0
	}
	return id
}

func (s *Source) addMaterial(h scene.Handle, owner *scene.GameObject, forceMask interop.ForceMask) interop.ResourceID {
	m := s.scene.Material(h)
	if m == nil {
		return 0
	}
	forceSubresources := forceMask.Has(interop.FORCE_SUBRESOURCES)
	id := s.ids.Find(h)
	if s.stored(s.store.IsMaterialStored, id) && !forceSubresources {
		return id
	}

	path := s.resourcePathOrFallback(h, owner, forceSubresources)
	if path == "" {
		utils.LogError("[geometry] Material %q has no resource path", m.Name)
		return 0
	}
	fromPath := s.store.GetOrGenerateUid(path)
	if id != 0 && id != fromPath {
		utils.LogError("[geometry] Uid mismatch for material %q at path %q. Id from list was %d, but id from path was %d",
			m.Name, path, id, fromPath)
		s.ids.Remove(h)
	}
	id = fromPath
	s.ids.Add(h, id)

	if !s.strategy.material(s, m, owner, id, path, forceMask) {
		return 0
	}
	return id
}

func (s *Source) addTexture(h scene.Handle, owner *scene.GameObject, forceMask interop.ForceMask, conversion interop.TextureConversion) interop.ResourceID {
	t := s.scene.Texture(h)
	if t == nil {
		return 0
	}
	forceRecreate := forceMask.Has(interop.FORCE_SUBRESOURCES)
	id := s.ids.Find(h)
	if s.stored(s.store.IsTextureStored, id) && !forceRecreate {
		return id
	}

	path := s.resourcePathOrFallback(h, owner, forceRecreate)
	if path == "" {
		utils.LogError("[geometry] Texture %q has no resource path", t.Name)
		return 0
	}
	fromPath := s.store.GetOrGenerateUid(path)
	if id == 0 {
		id = fromPath
	} else if id != fromPath {
		utils.LogError("[geometry] Uid mismatch for texture %q at path %q. Uid from path was %d, but stored texture id was %d",
			t.Name, path, fromPath, id)
		s.ids.Remove(h)
		return 0
	}
	s.ids.Add(h, id)
	return s.strategy.texture(s, t, owner, id, path, forceMask, conversion)
}

func (s *Source) extractTextCanvas(g *scene.GameObject) interop.ResourceID {
	tc := g.TextCanvas
	font := s.scene.Font(tc.Font)
	if font == nil {
		return 0
	}
	fontPath := s.resourcePathOrFallback(tc.Font, g, false)
	if fontPath == "" {
		return 0
	}
	fontID := s.store.GetOrGenerateUid(fontPath)
	s.ids.Add(tc.Font, fontID)
	size := tc.Size
	if size == 0 {
		size = font.Size
	}
	if !s.strategy.font(s, font, fontID, fontPath, size) {
		utils.LogWarn("[geometry] Text canvas %q uses font %q which is not stored", g.Name, font.Name)
	}

	canvas := interop.NewTextCanvas()
	canvas.Text = tc.Text
	canvas.Font = fontPath
	canvas.PointSize = size
	canvas.LineHeight = tc.LineHeight
	canvas.Colour = tc.Colour

	canvasPath := textCanvasFolder + g.Name
	id := s.store.GetOrGenerateUid(canvasPath)
	if !s.store.StoreTextCanvas(id, canvasPath, canvas) {
		utils.LogError("[geometry] Failed to store text canvas %q", canvasPath)
		return 0
	}
	return id
}
