package mesh

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
)

func quad() *scene.Mesh {
	return &scene.Mesh{
		Name:      "Quad",
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 3}},
		Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Tangents:  []mgl32.Vec4{{1, 0, 0, 1}, {1, 0, 0, 1}, {1, 0, 0, 1}, {1, 0, 0, 1}},
		UV0:       []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
		SubMeshes: []scene.SubMesh{{IndexStart: 0, IndexCount: 6}},
	}
}

func attribute(prim interop.PrimitiveArray, semantic interop.AttributeSemantic) (interop.ResourceID, bool) {
	for _, attr := range prim.Attributes {
		if attr.Semantic == semantic {
			return attr.Accessor, true
		}
	}
	return 0, false
}

func TestEncodeStaticMesh(t *testing.T) {
	src := quad()
	m, err := Encode(src, interop.AxesGl)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	// position, normal, tangent, uv0, uv1 and one index accessor
	assert.Len(t, m.Accessors, 6)
	require.Len(t, m.PrimitiveArrays, 1)
	prim := m.PrimitiveArrays[0]
	assert.Equal(t, interop.TRIANGLES, prim.Mode)
	assert.Len(t, prim.Attributes, 5)
	_, hasJoints := attribute(prim, interop.JOINTS_0)
	assert.False(t, hasJoints)
	assert.Zero(t, m.InverseBindMatricesAccessor)

	uv0, ok := attribute(prim, interop.TEXCOORD_0)
	require.True(t, ok)
	uv1, ok := attribute(prim, interop.TEXCOORD_1)
	require.True(t, ok)
	uv0Acc, _ := m.Accessor(uv0)
	uv1Acc, _ := m.Accessor(uv1)
	assert.Equal(t, uv0Acc.BufferView, uv1Acc.BufferView)
	assert.Equal(t, uint64(4), uv1Acc.Count)

	idx, ok := m.Accessor(prim.IndicesAccessor)
	require.True(t, ok)
	assert.Equal(t, uint64(3*2), idx.Count)
	assert.Equal(t, interop.USHORT, idx.ComponentType)

	indices, err := readIndices(m, prim.IndicesAccessor)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1, 0, 3, 2, 0}, indices)

	posID, _ := attribute(prim, interop.POSITION)
	positions, err := readFloats(m, posID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, -3}, positions[3])
}

func TestEncodeLocalIDs(t *testing.T) {
	m, err := Encode(quad(), interop.AxesGl)
	require.NoError(t, err)

	assert.Equal(t, []interop.ResourceID{1, 2, 3, 4, 5, 16}, m.AccessorIDs)
	assert.Equal(t, []interop.ResourceID{6, 8, 10, 12, 14}, m.BufferIDs)
	assert.Equal(t, []interop.ResourceID{7, 9, 11, 13, 15}, m.BufferViewIDs)
}

func TestEncodeWithoutTangentsOmitsAttribute(t *testing.T) {
	src := quad()
	src.Tangents = nil
	m, err := Encode(src, interop.AxesGl)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	_, ok := attribute(m.PrimitiveArrays[0], interop.TANGENT)
	assert.False(t, ok)
}

func TestEncodeSecondUVChannel(t *testing.T) {
	src := quad()
	src.UV2 = []mgl32.Vec2{{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}, {0.25, 0.75}}
	m, err := Encode(src, interop.AxesGl)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	uv1, _ := attribute(m.PrimitiveArrays[0], interop.TEXCOORD_1)
	acc, _ := m.Accessor(uv1)
	view, ok := m.BufferView(acc.BufferView)
	require.True(t, ok)
	assert.Equal(t, uint64(4*8), view.ByteOffset)

	uvs, err := readFloats(m, uv1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.75}, uvs[3])
}

func TestEncodeEngineering(t *testing.T) {
	src := quad()
	m, err := Encode(src, interop.AxesEngineering)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	prim := m.PrimitiveArrays[0]
	idx, _ := m.Accessor(prim.IndicesAccessor)
	assert.Equal(t, interop.UINT, idx.ComponentType)

	posID, _ := attribute(prim, interop.POSITION)
	positions, err := readFloats(m, posID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 3, 1}, positions[3])

	src.Index16 = true
	m, err = Encode(src, interop.AxesEngineering)
	require.NoError(t, err)
	idx, _ = m.Accessor(m.PrimitiveArrays[0].IndicesAccessor)
	assert.Equal(t, interop.USHORT, idx.ComponentType)
}

func TestEncodeSkinned(t *testing.T) {
	src := quad()
	for range src.Positions {
		src.BoneWeights = append(src.BoneWeights, scene.BoneWeight{
			Joints:  [4]int32{0, 1, 0, 0},
			Weights: [4]float32{0.75, 0.25, 0, 0},
		})
	}
	src.Bindposes = []mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(0, 1, 0)}

	m, err := Encode(src, interop.AxesGl)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	prim := m.PrimitiveArrays[0]
	joints, ok := attribute(prim, interop.JOINTS_0)
	require.True(t, ok)
	weights, ok := attribute(prim, interop.WEIGHTS_0)
	require.True(t, ok)
	assert.Equal(t, interop.ResourceID(6), joints)
	assert.Equal(t, interop.ResourceID(7), weights)
	assert.Equal(t, interop.ResourceID(8), m.InverseBindMatricesAccessor)

	jointAcc, _ := m.Accessor(joints)
	assert.Equal(t, interop.INT, jointAcc.ComponentType)
	assert.Equal(t, interop.VEC4, jointAcc.Type)
	jointData, err := m.AccessorData(joints)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(jointData[2][4:]))

	ibm, _ := m.Accessor(m.InverseBindMatricesAccessor)
	assert.Equal(t, interop.MAT4, ibm.Type)
	assert.Equal(t, uint64(2), ibm.Count)
	mats, err := readFloats(m, m.InverseBindMatricesAccessor)
	require.NoError(t, err)
	// row major, translation y sits at row 1 column 3
	assert.Equal(t, float32(1), mats[1][7])
}

func TestConvertMat4(t *testing.T) {
	var m mgl32.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m.Set(row, col, float32(row*4+col+1))
		}
	}

	gl := ConvertMat4(interop.AxesGl, m)
	assert.Equal(t, [16]float32{
		1, 2, -3, 4,
		5, 6, -7, 8,
		-9, -10, 11, -12,
		13, 14, -15, 16,
	}, gl)

	eng := ConvertMat4(interop.AxesEngineering, m)
	assert.Equal(t, [16]float32{
		1, 3, 2, 4,
		9, 11, 10, 12,
		5, 7, 6, 8,
		13, 15, 14, 16,
	}, eng)
}

func TestPackIndices(t *testing.T) {
	flipped := PackIndices([]uint32{7, 8, 9}, 4)
	assert.Equal(t, uint32(9), binary.LittleEndian.Uint32(flipped[0:]))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(flipped[4:]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(flipped[8:]))

	partial := PackIndices([]uint32{1, 2, 3, 4}, 2)
	require.Len(t, partial, 8)
	for i, want := range []uint16{1, 2, 3, 4} {
		assert.Equal(t, want, binary.LittleEndian.Uint16(partial[i*2:]))
	}
}

func TestEncodeUnsupportedAxes(t *testing.T) {
	_, err := Encode(quad(), interop.AxesUnreal)
	assert.Error(t, err)
}

func TestSubmeshOffsets(t *testing.T) {
	src := quad()
	src.SubMeshes = []scene.SubMesh{{IndexStart: 0, IndexCount: 3}, {IndexStart: 3, IndexCount: 3}}
	m, err := Encode(src, interop.AxesGl)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	require.Len(t, m.PrimitiveArrays, 2)

	second, _ := m.Accessor(m.PrimitiveArrays[1].IndicesAccessor)
	assert.Equal(t, uint64(3*2), second.ByteOffset)
	indices, err := readIndices(m, m.PrimitiveArrays[1].IndicesAccessor)
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 2, 0}, indices)
}

func TestExportGLTF(t *testing.T) {
	encoded, err := Encode(quad(), interop.AxesEngineering)
	require.NoError(t, err)

	doc, err := ExportGLTFDefault(42, encoded, interop.AxesEngineering)
	require.NoError(t, err)
	require.Len(t, doc.Meshes, 1)
	prim := doc.Meshes[0].Primitives[0]
	for _, name := range []string{"POSITION", "NORMAL", "TANGENT", "TEXCOORD_0", "TEXCOORD_1"} {
		assert.Contains(t, prim.Attributes, name)
	}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[prim.Attributes["POSITION"]], nil)
	require.NoError(t, err)
	assert.Equal(t, [3]float32{0, 1, -3}, positions[3])

	indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1, 0, 3, 2, 0}, indices)
}
