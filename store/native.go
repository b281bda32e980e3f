// Package store is the resource cache extraction writes into.
//
// Native is the boundary every stored record crosses. Calls report failure
// through their return value and never panic. Bridge guards a Native with
// the struct layout check, GeometryStore is the cache itself.
package store

import "github.com/mogaika/geometry_source/interop"

// Loaded lists what a reloaded store holds, per kind
type Loaded struct {
	Meshes    []interop.LoadedResource
	Textures  []interop.LoadedResource
	Materials []interop.LoadedResource
}

type Native interface {
	StoreNode(id interop.ResourceID, node *interop.Node) bool
	IsNodeStored(id interop.ResourceID) bool
	RemoveNode(id interop.ResourceID) bool

	StoreMesh(id interop.ResourceID, path string, lastModified int64, mesh *interop.Mesh, axes interop.AxesStandard, verify bool) bool
	IsMeshStored(id interop.ResourceID) bool

	StoreMaterial(id interop.ResourceID, path string, lastModified int64, material *interop.Material) bool
	IsMaterialStored(id interop.ResourceID) bool

	StoreTexture(id interop.ResourceID, path string, lastModified int64, tex *interop.Texture, genMips, highQuality, force bool) bool
	IsTextureStored(id interop.ResourceID) bool

	StoreSkeleton(id interop.ResourceID, path string, lastModified int64, skeleton *interop.Skeleton) bool
	IsSkeletonStored(id interop.ResourceID) bool

	StoreFont(id interop.ResourceID, fontFile, path string, lastModified int64, size int32) bool
	GetFontAtlas(path string) (*interop.FontAtlas, bool)
	StoreTextCanvas(id interop.ResourceID, path string, canvas *interop.TextCanvas) bool

	PathToUid(path string) interop.ResourceID
	UidToPath(id interop.ResourceID) string
	GetOrGenerateUid(path string) interop.ResourceID
	GenerateUid() interop.ResourceID

	EnsureResourceIsLoaded(id interop.ResourceID) bool
	EnsurePathResourceIsLoaded(path string) interop.ResourceID

	SetCachePath(path string)
	SetHttpRoot(url string)
	SaveStore() bool
	LoadStore() (Loaded, bool)
	ClearStore()
	CheckStoreForErrors() bool

	GetStructSize(name string) int64
}
