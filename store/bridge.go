package store

import (
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/utils"
)

// Bridge refuses store calls whose records disagree in size with the
// native side. Every other call passes through.
type Bridge struct {
	Native
	checked map[string]bool
}

func NewBridge(n Native) *Bridge {
	return &Bridge{Native: n, checked: make(map[string]bool)}
}

// CheckStructs compares the named layouts, logging every mismatch
func (b *Bridge) CheckStructs(names ...string) bool {
	ok := true
	for _, name := range names {
		match, done := b.checked[name]
		if !done {
			managed := interop.StructSize(name)
			native := b.Native.GetStructSize(name)
			match = managed >= 0 && managed == native
			if !match {
				utils.LogError("[store] Struct %s size mismatch: managed %d, native %d", name, managed, native)
			}
			b.checked[name] = match
		}
		ok = ok && match
	}
	return ok
}

// Recheck forgets cached results, used after the native side is replaced
func (b *Bridge) Recheck() {
	b.checked = make(map[string]bool)
}

func (b *Bridge) StoreNode(id interop.ResourceID, node *interop.Node) bool {
	if !b.CheckStructs(interop.StructTransform, interop.StructNodeRenderState, interop.StructNode) {
		return false
	}
	return b.Native.StoreNode(id, node)
}

func (b *Bridge) StoreMesh(id interop.ResourceID, path string, lastModified int64, mesh *interop.Mesh, axes interop.AxesStandard, verify bool) bool {
	if !b.CheckStructs(interop.StructMesh) {
		return false
	}
	return b.Native.StoreMesh(id, path, lastModified, mesh, axes, verify)
}

func (b *Bridge) StoreMaterial(id interop.ResourceID, path string, lastModified int64, material *interop.Material) bool {
	if !b.CheckStructs(interop.StructTextureAccessor, interop.StructPBRMetallicRoughness, interop.StructMaterial) {
		return false
	}
	return b.Native.StoreMaterial(id, path, lastModified, material)
}

func (b *Bridge) StoreTexture(id interop.ResourceID, path string, lastModified int64, tex *interop.Texture, genMips, highQuality, force bool) bool {
	if !b.CheckStructs(interop.StructTexture) {
		return false
	}
	return b.Native.StoreTexture(id, path, lastModified, tex, genMips, highQuality, force)
}

func (b *Bridge) StoreSkeleton(id interop.ResourceID, path string, lastModified int64, skeleton *interop.Skeleton) bool {
	if !b.CheckStructs(interop.StructTransform, interop.StructSkeleton) {
		return false
	}
	return b.Native.StoreSkeleton(id, path, lastModified, skeleton)
}

func (b *Bridge) StoreTextCanvas(id interop.ResourceID, path string, canvas *interop.TextCanvas) bool {
	if !b.CheckStructs(interop.StructTextCanvas) {
		return false
	}
	return b.Native.StoreTextCanvas(id, path, canvas)
}
