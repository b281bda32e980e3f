// Package geometry walks a scene and turns its objects into stored
// resources: nodes, meshes, materials, textures, skeletons and text.
// Source is the one entry point, it owns identity for the session.
package geometry

import (
	"sync"

	"github.com/mogaika/geometry_source/config"
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/resources"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/store"
	"github.com/mogaika/geometry_source/txr"
	"github.com/mogaika/geometry_source/utils"
)

type componentKind uint8

const (
	componentLight componentKind = iota
	componentLink
)

// lights and links have ids of their own but no handle
type componentKey struct {
	owner scene.Handle
	kind  componentKind
}

type Source struct {
	mu sync.Mutex

	settings config.Settings
	scene    *scene.Scene
	store    *store.Bridge
	strategy strategy

	governance Governance

	ids      *resources.IdentityTable
	paths    *resources.PathManager
	textures *txr.Queue

	// skeleton asset path -> skeleton id
	skeletonUids map[string]interop.ResourceID
	componentIDs map[componentKey]interop.ResourceID
	// bone objects stored by their skeleton, not by AddNode
	bones map[scene.Handle]bool
}

func NewSource(sc *scene.Scene, settings config.Settings, native store.Native) (*Source, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	queue, err := txr.NewQueue(settings)
	if err != nil {
		return nil, err
	}
	s := &Source{
		settings:     settings,
		scene:        sc,
		store:        store.NewBridge(native),
		strategy:     newStrategy(settings.Mode),
		ids:          resources.NewIdentityTable(),
		paths:        resources.NewPathManager(),
		textures:     queue,
		skeletonUids: make(map[string]interop.ResourceID),
		componentIDs: make(map[componentKey]interop.ResourceID),
		bones:        make(map[scene.Handle]bool),
	}
	s.store.SetCachePath(settings.CachePath)
	s.store.SetHttpRoot(settings.HttpRoot)
	utils.LogDebug("[geometry] Source for scene %q in %s mode", sc.Name, settings.Mode)
	return s, nil
}

func (s *Source) Scene() *scene.Scene {
	return s.scene
}

func (s *Source) Store() *store.Bridge {
	return s.store
}

func (s *Source) Settings() config.Settings {
	return s.settings
}

func (s *Source) authoring() bool {
	return s.settings.Mode == config.ModeAuthor
}

// FindResourceID is zero for objects not extracted this session
func (s *Source) FindResourceID(h scene.Handle) interop.ResourceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids.Find(h)
}

// FindObject is the reverse of FindResourceID
func (s *Source) FindObject(id interop.ResourceID) (scene.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids.Handle(id)
}

func (s *Source) AddNode(h scene.Handle, forceMask interop.ForceMask, isChildExtraction, verify bool) interop.ResourceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNode(h, forceMask, isChildExtraction, verify)
}

func (s *Source) AddMesh(h scene.Handle, owner scene.Handle, forceMask interop.ForceMask, verify bool) interop.ResourceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMesh(h, s.scene.GameObject(owner), forceMask, verify)
}

func (s *Source) AddMaterial(h scene.Handle, owner scene.Handle, forceMask interop.ForceMask) interop.ResourceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMaterial(h, s.scene.GameObject(owner), forceMask)
}

func (s *Source) AddTexture(h scene.Handle, owner scene.Handle, forceMask interop.ForceMask, conversion interop.TextureConversion) interop.ResourceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTexture(h, s.scene.GameObject(owner), forceMask, conversion)
}

// AddSkeleton returns the id of the skeleton's root node
func (s *Source) AddSkeleton(root scene.Handle, forceMask interop.ForceMask) interop.ResourceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.scene.GameObject(root)
	if g == nil {
		utils.LogError("[geometry] Skeleton root %v is not a game object", root)
		return 0
	}
	return s.addSkeleton(g, forceMask)
}

// ExtractScene adds every root of the scene at or above the minimum node
// priority with its hierarchy, then flushes the texture queue
func (s *Source) ExtractScene(forceMask interop.ForceMask, verify bool, progress txr.ProgressFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := true
	for _, root := range s.scene.Roots {
		g := s.scene.GameObject(root)
		if g == nil || !s.streamableRoot(g) {
			continue
		}
		if s.addNode(root, forceMask, false, verify) == 0 {
			ok = false
		}
	}
	if s.authoring() {
		if !s.extractTextures(forceMask.Has(interop.FORCE_TEXTURES), progress) {
			return false
		}
	}
	return ok
}

// ExtractTextures reads back every queued texture into the store
func (s *Source) ExtractTextures(force bool, progress txr.ProgressFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extractTextures(force, progress)
}

func (s *Source) extractTextures(force bool, progress txr.ProgressFunc) bool {
	if s.textures.Len() == 0 {
		return true
	}
	utils.LogInfo("[geometry] Extracting %d textures", s.textures.Len())
	return s.textures.Flush(s.store, force, progress)
}

func (s *Source) PendingTextures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textures.Len()
}

func (s *Source) CheckForErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.CheckStoreForErrors()
}

// ClearData forgets every id of the session and empties the store
func (s *Source) ClearData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids.Clear()
	s.paths.Clear()
	s.textures.Clear()
	s.skeletonUids = make(map[string]interop.ResourceID)
	s.componentIDs = make(map[componentKey]interop.ResourceID)
	s.bones = make(map[scene.Handle]bool)
	s.store.ClearStore()
	s.store.Recheck()
}

// RemoveLostNodes drops ids of objects removed from the scene and the
// nodes stored for them
func (s *Source) RemoveLostNodes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range s.ids.Prune(s.scene.Alive) {
		if s.store.IsNodeStored(id) && s.store.RemoveNode(id) {
			removed++
		}
	}
	s.paths.Prune(s.scene.Alive)
	for key := range s.componentIDs {
		if !s.scene.Alive(key.owner) {
			delete(s.componentIDs, key)
		}
	}
	for h := range s.bones {
		if !s.scene.Alive(h) {
			delete(s.bones, h)
		}
	}
	if removed != 0 {
		utils.LogInfo("[geometry] Removed %d lost nodes", removed)
	}
	return removed
}

// SetScene swaps in a reloaded scene. Handles of a scene loaded from the
// same description are the same, so the ids of the session stay valid.
func (s *Source) SetScene(sc *scene.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene = sc
}
