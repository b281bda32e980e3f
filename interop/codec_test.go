package interop

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackSubresources(t *testing.T) {
	a := make([]byte, 100)
	b := make([]byte, 200)
	for i := range a {
		a[i] = 0xaa
	}
	for i := range b {
		b[i] = 0xbb
	}

	blob, err := PackSubresources([][]byte{a, b})
	require.NoError(t, err)
	require.Len(t, blob, 310)
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(blob[0:]))
	assert.Equal(t, uint32(10), binary.LittleEndian.Uint32(blob[2:]))
	assert.Equal(t, uint32(110), binary.LittleEndian.Uint32(blob[6:]))
	assert.Equal(t, byte(0xaa), blob[10])
	assert.Equal(t, byte(0xaa), blob[109])
	assert.Equal(t, byte(0xbb), blob[110])

	images, err := UnpackSubresources(blob)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, a, images[0])
	assert.Equal(t, b, images[1])
}

func TestUnpackSubresourcesRejectsGarbage(t *testing.T) {
	for _, blob := range [][]byte{
		nil,
		{1},
		{2, 0, 10, 0, 0, 0},
		{1, 0, 1, 0, 0, 0},
	} {
		_, err := UnpackSubresources(blob)
		assert.Error(t, err, "%v", blob)
	}
}

func TestNodeCodec(t *testing.T) {
	n := NewNode("Crate")
	n.Transform.Position = mgl32.Vec3{1, 2, 3}
	n.Transform.Rotation = mgl32.QuatRotate(1, mgl32.Vec3{0, 1, 0})
	n.DataType = NodeDataMesh
	n.ParentID = 7
	n.DataID = 99
	n.MaterialIDs = []ResourceID{5, 6}
	n.JointIndices = []int16{0, 3, -1}
	n.RenderState.GlobalIlluminationTextureID = 44
	n.Priority = -2
	n.URL = "https://example.com"

	decoded, err := DecodeNode(EncodeNode(n))
	require.NoError(t, err)
	assert.Equal(t, n, decoded)
}

func TestMeshCodec(t *testing.T) {
	m := &Mesh{Name: "Cube", Path: "Meshes/cube_-_fbx~~Cube"}
	m.AddBuffer(1, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	m.AddBufferView(2, BufferView{Buffer: 1, ByteLength: 12, ByteStride: 12})
	m.AddAccessor(3, Accessor{Type: VEC3, ComponentType: FLOAT, Count: 1, BufferView: 2})
	m.PrimitiveArrays = []PrimitiveArray{{
		Attributes:      []Attribute{{Semantic: POSITION, Accessor: 3}},
		IndicesAccessor: 3,
		Mode:            TRIANGLES,
	}}

	decoded, err := DecodeMesh(EncodeMesh(m))
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
	assert.NoError(t, decoded.Validate())
}

func TestDecodeRejectsWrongMagic(t *testing.T) {
	_, err := DecodeMaterial(EncodeTexture(NewTexture("t")))
	assert.Error(t, err)

	data := EncodeMaterial(NewMaterial("m"))
	_, err = DecodeMaterial(data[:len(data)-3])
	assert.Error(t, err)
}

func TestMaterialTextureCodec(t *testing.T) {
	m := NewMaterial("Brick")
	m.PBRMetallicRoughness.BaseColorTexture.Index = 12
	m.DoubleSided = true
	m.LightmapTexCoordIndex = 1
	dm, err := DecodeMaterial(EncodeMaterial(m))
	require.NoError(t, err)
	assert.Equal(t, m, dm)
	assert.Equal(t, []ResourceID{12}, dm.TextureIDs())

	tex := NewTexture("Brick")
	tex.Width, tex.Height = 4, 4
	tex.Format = TextureFormatRGBA8
	tex.Data = []byte{0, 1, 2}
	dt, err := DecodeTexture(EncodeTexture(tex))
	require.NoError(t, err)
	assert.Equal(t, tex, dt)
}

func TestFontAtlasCodec(t *testing.T) {
	f := &FontAtlas{
		FontPath: "Fonts/arial_-_fnt",
		Maps: []FontMap{{Size: 32, Glyphs: []Glyph{
			{X0: 1, Y0: 2, X1: 10, Y1: 20, XOffset: 0.5, XAdvance: 9},
		}}},
	}
	df, err := DecodeFontAtlas(EncodeFontAtlas(f))
	require.NoError(t, err)
	assert.Equal(t, f, df)
}

func TestNamesAreUtf8(t *testing.T) {
	for _, name := range []string{"Ствол_樹", "Ωmega", "plain"} {
		decoded, err := DecodeNode(EncodeNode(NewNode(name)))
		require.NoError(t, err)
		assert.Equal(t, name, decoded.Name)

		m, err := DecodeMaterial(EncodeMaterial(NewMaterial(name)))
		require.NoError(t, err)
		assert.Equal(t, name, m.Name)
	}

	// decomposed e + combining acute composes to a single rune
	decoded, err := DecodeNode(EncodeNode(NewNode("Cafe\u0301")))
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9", decoded.Name)
}
