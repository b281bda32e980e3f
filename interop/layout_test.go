package interop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructSize(t *testing.T) {
	for _, test := range []struct {
		name string
		size int64
	}{
		{StructTransform, 40},
		{StructNodeRenderState, 25},
		{StructTextureAccessor, 21},
		{StructPBRMetallicRoughness, 70},
		{StructNode, 212},
		{StructMaterial, 188},
		{StructTexture, 62},
		{StructSkeleton, 72},
		{StructMesh, 112},
		{StructTextCanvas, 40},
		{"InteropUnknown", -1},
	} {
		assert.Equal(t, test.size, StructSize(test.name), test.name)
	}
	assert.Len(t, StructNames(), len(layouts))
}
