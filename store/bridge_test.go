package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mogaika/geometry_source/interop"
)

// skewedNative reports a different size for one struct and counts what
// reaches it
type skewedNative struct {
	*GeometryStore
	skewed string
	calls  int
}

func (n *skewedNative) GetStructSize(name string) int64 {
	if name == n.skewed {
		return interop.StructSize(name) + 8
	}
	return interop.StructSize(name)
}

func (n *skewedNative) StoreNode(id interop.ResourceID, node *interop.Node) bool {
	n.calls++
	return n.GeometryStore.StoreNode(id, node)
}

func (n *skewedNative) StoreTexture(id interop.ResourceID, path string, lastModified int64, tex *interop.Texture, genMips, hq, force bool) bool {
	n.calls++
	return n.GeometryStore.StoreTexture(id, path, lastModified, tex, genMips, hq, force)
}

func (n *skewedNative) StoreMaterial(id interop.ResourceID, path string, lastModified int64, m *interop.Material) bool {
	n.calls++
	return n.GeometryStore.StoreMaterial(id, path, lastModified, m)
}

func TestBridgeRefusesMismatchedStructs(t *testing.T) {
	for _, test := range []struct {
		skewed   string
		node     bool
		material bool
		texture  bool
	}{
		{"", true, true, true},
		{interop.StructTransform, false, true, true},
		{interop.StructNode, false, true, true},
		{interop.StructTextureAccessor, true, false, true},
		{interop.StructTexture, true, true, false},
	} {
		native := &skewedNative{GeometryStore: NewGeometryStore(), skewed: test.skewed}
		b := NewBridge(native)

		assert.Equal(t, test.node, b.StoreNode(1, interop.NewNode("n")), test.skewed)
		assert.Equal(t, test.material, b.StoreMaterial(2, "Assets/m.mat", 0, interop.NewMaterial("m")), test.skewed)
		assert.Equal(t, test.texture, b.StoreTexture(3, "Assets/t.png", 0, texture("t", []byte{1, 2, 3, 4}), false, false, false), test.skewed)

		expectedCalls := 0
		for _, passed := range []bool{test.node, test.material, test.texture} {
			if passed {
				expectedCalls++
			}
		}
		// refused calls never reach the native side
		assert.Equal(t, expectedCalls, native.calls, test.skewed)
		assert.Equal(t, test.node, native.IsNodeStored(1), test.skewed)
	}
}

func TestBridgePassesThrough(t *testing.T) {
	b := NewBridge(NewGeometryStore())
	id := b.GetOrGenerateUid("Assets/a.png")
	assert.Equal(t, "Assets/a.png", b.UidToPath(id))
	assert.True(t, b.CheckStructs(interop.StructNames()...))
}
