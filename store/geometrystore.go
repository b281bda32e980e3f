package store

import (
	"sort"
	"sync"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/utils"
)

type Kind string

const (
	KindMesh       Kind = "mesh"
	KindMaterial   Kind = "material"
	KindTexture    Kind = "texture"
	KindSkeleton   Kind = "skeleton"
	KindFont       Kind = "font"
	KindNode       Kind = "node"
	KindTextCanvas Kind = "text_canvas"
)

// Meta is what the store knows about a resource without its payload
type Meta struct {
	ID           interop.ResourceID
	Kind         Kind
	Path         string
	Name         string
	LastModified int64
}

type meshEntry struct {
	Meta
	byAxes map[interop.AxesStandard]*interop.Mesh
}

type textureEntry struct {
	Meta
	tex         *interop.Texture
	highQuality bool
}

type materialEntry struct {
	Meta
	material *interop.Material
}

type skeletonEntry struct {
	Meta
	skeleton *interop.Skeleton
}

type fontEntry struct {
	Meta
	atlas *interop.FontAtlas
}

type canvasEntry struct {
	Meta
	canvas *interop.TextCanvas
}

// GeometryStore keeps every extracted resource in memory and mirrors the
// persistent kinds to the cache folder on SaveStore
type GeometryStore struct {
	mu sync.RWMutex

	cachePath string
	httpRoot  string

	nodes     map[interop.ResourceID]*interop.Node
	meshes    map[interop.ResourceID]*meshEntry
	materials map[interop.ResourceID]*materialEntry
	textures  map[interop.ResourceID]*textureEntry
	skeletons map[interop.ResourceID]*skeletonEntry
	fonts     map[interop.ResourceID]*fontEntry
	canvases  map[interop.ResourceID]*canvasEntry

	uids    map[string]interop.ResourceID
	paths   map[interop.ResourceID]string
	nextUid uint64

	// on disk but not read yet, hydrated by EnsureResourceIsLoaded
	unloaded map[interop.ResourceID]indexEntry
}

func NewGeometryStore() *GeometryStore {
	gs := &GeometryStore{}
	gs.clear()
	return gs
}

func (gs *GeometryStore) clear() {
	gs.nodes = make(map[interop.ResourceID]*interop.Node)
	gs.meshes = make(map[interop.ResourceID]*meshEntry)
	gs.materials = make(map[interop.ResourceID]*materialEntry)
	gs.textures = make(map[interop.ResourceID]*textureEntry)
	gs.skeletons = make(map[interop.ResourceID]*skeletonEntry)
	gs.fonts = make(map[interop.ResourceID]*fontEntry)
	gs.canvases = make(map[interop.ResourceID]*canvasEntry)
	gs.uids = make(map[string]interop.ResourceID)
	gs.paths = make(map[interop.ResourceID]string)
	gs.unloaded = make(map[interop.ResourceID]indexEntry)
	gs.nextUid = 1
}

func (gs *GeometryStore) rememberPath(id interop.ResourceID, path string) {
	if path == "" || id == 0 {
		return
	}
	if old, ok := gs.paths[id]; ok && old != path {
		delete(gs.uids, old)
	}
	gs.uids[path] = id
	gs.paths[id] = path
}

func (gs *GeometryStore) StoreNode(id interop.ResourceID, node *interop.Node) bool {
	if id == 0 || node == nil {
		return false
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	n := *node
	gs.nodes[id] = &n
	return true
}

func (gs *GeometryStore) IsNodeStored(id interop.ResourceID) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	_, ok := gs.nodes[id]
	return ok
}

func (gs *GeometryStore) RemoveNode(id interop.ResourceID) bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if _, ok := gs.nodes[id]; !ok {
		return false
	}
	delete(gs.nodes, id)
	return true
}

func (gs *GeometryStore) StoreMesh(id interop.ResourceID, path string, lastModified int64, mesh *interop.Mesh, axes interop.AxesStandard, verify bool) bool {
	if id == 0 || mesh == nil {
		return false
	}
	if verify {
		if err := mesh.Validate(); err != nil {
			utils.LogError("[store] Refusing mesh %q: %v", path, err)
			return false
		}
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	e, ok := gs.meshes[id]
	if !ok || e.Path != path {
		e = &meshEntry{byAxes: make(map[interop.AxesStandard]*interop.Mesh)}
		gs.meshes[id] = e
	}
	e.Meta = Meta{ID: id, Kind: KindMesh, Path: path, Name: mesh.Name, LastModified: lastModified}
	e.byAxes[axes] = mesh
	delete(gs.unloaded, id)
	gs.rememberPath(id, path)
	return true
}

func (gs *GeometryStore) IsMeshStored(id interop.ResourceID) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	_, ok := gs.meshes[id]
	return ok
}

func (gs *GeometryStore) StoreMaterial(id interop.ResourceID, path string, lastModified int64, material *interop.Material) bool {
	if id == 0 || material == nil {
		return false
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.materials[id] = &materialEntry{
		Meta:     Meta{ID: id, Kind: KindMaterial, Path: path, Name: material.Name, LastModified: lastModified},
		material: material,
	}
	delete(gs.unloaded, id)
	gs.rememberPath(id, path)
	return true
}

func (gs *GeometryStore) IsMaterialStored(id interop.ResourceID) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	_, ok := gs.materials[id]
	return ok
}

// StoreTexture keeps an existing newer texture unless forced. Mip
// generation is left to the extractor, which always provides the chain.
func (gs *GeometryStore) StoreTexture(id interop.ResourceID, path string, lastModified int64, tex *interop.Texture, genMips, highQuality, force bool) bool {
	if id == 0 || tex == nil {
		return false
	}
	if genMips {
		utils.LogError("[store] Texture %q asks for mip generation, which is not supported", path)
		return false
	}
	if images, err := interop.UnpackSubresources(tex.Data); err != nil {
		utils.LogError("[store] Refusing texture %q: %v", path, err)
		return false
	} else if len(images) != tex.ImageCount() {
		utils.LogError("[store] Refusing texture %q: %d subresources, layout needs %d", path, len(images), tex.ImageCount())
		return false
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()
	if old, ok := gs.textures[id]; ok && !force && old.LastModified > lastModified {
		utils.LogDebug("[store] Keeping newer texture %q", path)
		return true
	}
	gs.textures[id] = &textureEntry{
		Meta:        Meta{ID: id, Kind: KindTexture, Path: path, Name: tex.Name, LastModified: lastModified},
		tex:         tex,
		highQuality: highQuality,
	}
	delete(gs.unloaded, id)
	gs.rememberPath(id, path)
	return true
}

func (gs *GeometryStore) IsTextureStored(id interop.ResourceID) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	_, ok := gs.textures[id]
	return ok
}

func (gs *GeometryStore) StoreSkeleton(id interop.ResourceID, path string, lastModified int64, skeleton *interop.Skeleton) bool {
	if id == 0 || skeleton == nil {
		return false
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.skeletons[id] = &skeletonEntry{
		Meta:     Meta{ID: id, Kind: KindSkeleton, Path: path, Name: skeleton.Name, LastModified: lastModified},
		skeleton: skeleton,
	}
	delete(gs.unloaded, id)
	gs.rememberPath(id, path)
	return true
}

func (gs *GeometryStore) IsSkeletonStored(id interop.ResourceID) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	_, ok := gs.skeletons[id]
	return ok
}

func (gs *GeometryStore) StoreTextCanvas(id interop.ResourceID, path string, canvas *interop.TextCanvas) bool {
	if id == 0 || canvas == nil {
		return false
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.canvases[id] = &canvasEntry{
		Meta:   Meta{ID: id, Kind: KindTextCanvas, Path: path, Name: path},
		canvas: canvas,
	}
	gs.rememberPath(id, path)
	return true
}

func (gs *GeometryStore) PathToUid(path string) interop.ResourceID {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.uids[path]
}

func (gs *GeometryStore) UidToPath(id interop.ResourceID) string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.paths[id]
}

// GetOrGenerateUid depends on the path alone, so ids survive a cleared store
func (gs *GeometryStore) GetOrGenerateUid(path string) interop.ResourceID {
	if path == "" {
		return 0
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if id, ok := gs.uids[path]; ok {
		return id
	}
	id := utils.PathUid(path)
	gs.rememberPath(id, path)
	return id
}

// GenerateUid hands out ids for objects without a path. They never have
// the high bit set and so never meet a path id.
func (gs *GeometryStore) GenerateUid() interop.ResourceID {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	id := gs.nextUid
	gs.nextUid++
	return id
}

func (gs *GeometryStore) SetCachePath(path string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.cachePath = path
}

func (gs *GeometryStore) CachePath() string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.cachePath
}

func (gs *GeometryStore) SetHttpRoot(url string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.httpRoot = url
}

// URL is where the web server publishes a resource
func (gs *GeometryStore) URL(id interop.ResourceID) string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	path, ok := gs.paths[id]
	if !ok || gs.httpRoot == "" {
		return ""
	}
	return gs.httpRoot + "/resource/" + path
}

func (gs *GeometryStore) ClearStore() {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.clear()
}

func (gs *GeometryStore) GetStructSize(name string) int64 {
	return interop.StructSize(name)
}

func (gs *GeometryStore) Node(id interop.ResourceID) (*interop.Node, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	n, ok := gs.nodes[id]
	return n, ok
}

func (gs *GeometryStore) Mesh(id interop.ResourceID, axes interop.AxesStandard) (*interop.Mesh, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	e, ok := gs.meshes[id]
	if !ok {
		return nil, false
	}
	m, ok := e.byAxes[axes]
	return m, ok
}

func (gs *GeometryStore) Material(id interop.ResourceID) (*interop.Material, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	e, ok := gs.materials[id]
	if !ok {
		return nil, false
	}
	return e.material, true
}

func (gs *GeometryStore) Texture(id interop.ResourceID) (*interop.Texture, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	e, ok := gs.textures[id]
	if !ok {
		return nil, false
	}
	return e.tex, true
}

func (gs *GeometryStore) Skeleton(id interop.ResourceID) (*interop.Skeleton, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	e, ok := gs.skeletons[id]
	if !ok {
		return nil, false
	}
	return e.skeleton, true
}

func (gs *GeometryStore) TextCanvas(id interop.ResourceID) (*interop.TextCanvas, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	e, ok := gs.canvases[id]
	if !ok {
		return nil, false
	}
	return e.canvas, true
}

// Resources lists everything held in memory, ordered by kind then id
func (gs *GeometryStore) Resources() []Meta {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	var result []Meta
	for _, e := range gs.meshes {
		result = append(result, e.Meta)
	}
	for _, e := range gs.materials {
		result = append(result, e.Meta)
	}
	for _, e := range gs.textures {
		result = append(result, e.Meta)
	}
	for _, e := range gs.skeletons {
		result = append(result, e.Meta)
	}
	for _, e := range gs.fonts {
		result = append(result, e.Meta)
	}
	for _, e := range gs.canvases {
		result = append(result, e.Meta)
	}
	for id, n := range gs.nodes {
		result = append(result, Meta{ID: id, Kind: KindNode, Name: n.Name})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Kind != result[j].Kind {
			return result[i].Kind < result[j].Kind
		}
		return result[i].ID < result[j].ID
	})
	return result
}
