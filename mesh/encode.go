// Package mesh turns source meshes into the accessor/view/buffer layout
// the store consumes, and back into glTF for previews.
package mesh

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/utils"
)

const (
	vec2Stride = 2 * 4
	vec3Stride = 3 * 4
	vec4Stride = 4 * 4
	mat4Stride = 16 * 4
)

type encoder struct {
	axes    interop.AxesStandard
	localID interop.ResourceID
	out     *interop.Mesh
}

func (e *encoder) nextID() interop.ResourceID {
	id := e.localID
	e.localID++
	return id
}

// addBufferAndView registers data as a new buffer covered by one view
func (e *encoder) addBufferAndView(data []byte, stride uint64) interop.ResourceID {
	bufferID := e.nextID()
	viewID := e.nextID()
	e.out.AddBuffer(bufferID, data)
	e.out.AddBufferView(viewID, interop.BufferView{
		Buffer:     bufferID,
		ByteLength: uint64(len(data)),
		ByteStride: stride,
	})
	return viewID
}

func (e *encoder) vec3Buffer(data []mgl32.Vec3) interop.ResourceID {
	buf := make([]byte, len(data)*vec3Stride)
	for i, v := range data {
		v = ConvertVec3(e.axes, v)
		for c := 0; c < 3; c++ {
			putFloat(buf[i*vec3Stride+c*4:], v[c])
		}
	}
	return e.addBufferAndView(buf, vec3Stride)
}

func (e *encoder) vec4Buffer(data []mgl32.Vec4) interop.ResourceID {
	buf := make([]byte, len(data)*vec4Stride)
	for i, v := range data {
		v = ConvertVec4(e.axes, v)
		for c := 0; c < 4; c++ {
			putFloat(buf[i*vec4Stride+c*4:], v[c])
		}
	}
	return e.addBufferAndView(buf, vec4Stride)
}

func (e *encoder) mat4Buffer(data []mgl32.Mat4) interop.ResourceID {
	buf := make([]byte, len(data)*mat4Stride)
	for i, m := range data {
		for c, v := range ConvertMat4(e.axes, m) {
			putFloat(buf[i*mat4Stride+c*4:], v)
		}
	}
	return e.addBufferAndView(buf, mat4Stride)
}

// IndexStride is 2 for gl targets and 16 bit sources, 4 otherwise
func IndexStride(axes interop.AxesStandard, src *scene.Mesh) int {
	if axes == interop.AxesGl || src.Index16 {
		return 2
	}
	return 4
}

// PackIndices writes indices with every triangle reversed: (a,b,c) -> (c,b,a).
// Lists that are not whole triangles are copied as is.
func PackIndices(indices []uint32, stride int) []byte {
	buf := make([]byte, len(indices)*stride)
	put := func(i int, v uint32) {
		if stride == 2 {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
		} else {
			binary.LittleEndian.PutUint32(buf[i*4:], v)
		}
	}

	if len(indices)%3 != 0 {
		utils.LogError("[mesh] Index count %d is not a multiple of 3", len(indices))
		for i, v := range indices {
			put(i, v)
		}
		return buf
	}
	for i := 0; i < len(indices); i += 3 {
		put(i, indices[i+2])
		put(i+1, indices[i+1])
		put(i+2, indices[i])
	}
	return buf
}

// Encode converts src into the store layout for one axis convention.
// Local ids start at 1 and are only meaningful inside the returned mesh.
func Encode(src *scene.Mesh, axes interop.AxesStandard) (*interop.Mesh, error) {
	if err := checkAxes(axes); err != nil {
		return nil, err
	}

	e := &encoder{
		axes:    axes,
		localID: 1,
		out:     &interop.Mesh{Name: src.Name},
	}
	out := e.out
	hasTangents := len(src.Tangents) != 0
	hasSkin := len(src.BoneWeights) != 0

	positionAccessor := e.nextID()
	normalAccessor := e.nextID()
	tangentAccessor := e.nextID()
	uv0Accessor := e.nextID()
	// uv1 always gets an accessor, falling back to uv0 data
	uv1Accessor := e.nextID()
	var jointAccessor, weightAccessor interop.ResourceID
	if hasSkin {
		jointAccessor = e.nextID()
		weightAccessor = e.nextID()
	}
	if len(src.Bindposes) != 0 {
		out.InverseBindMatricesAccessor = e.nextID()
	}

	out.AddAccessor(positionAccessor, interop.Accessor{
		Type: interop.VEC3, ComponentType: interop.FLOAT,
		Count: uint64(len(src.Positions)), BufferView: e.vec3Buffer(src.Positions),
	})
	out.AddAccessor(normalAccessor, interop.Accessor{
		Type: interop.VEC3, ComponentType: interop.FLOAT,
		Count: uint64(len(src.Normals)), BufferView: e.vec3Buffer(src.Normals),
	})
	if hasTangents {
		out.AddAccessor(tangentAccessor, interop.Accessor{
			Type: interop.VEC4, ComponentType: interop.FLOAT,
			Count: uint64(len(src.Tangents)), BufferView: e.vec4Buffer(src.Tangents),
		})
	}

	// both uv channels live in one buffer, uv0 first
	{
		uvData := make([]byte, (len(src.UV0)+len(src.UV2))*vec2Stride)
		for i, uv := range append(append([]mgl32.Vec2{}, src.UV0...), src.UV2...) {
			putFloat(uvData[i*vec2Stride:], uv[0])
			putFloat(uvData[i*vec2Stride+4:], uv[1])
		}
		uv0Size := uint64(len(src.UV0) * vec2Stride)

		uvBuffer := e.nextID()
		uv0View := e.nextID()
		out.AddBuffer(uvBuffer, uvData)
		out.AddBufferView(uv0View, interop.BufferView{
			Buffer: uvBuffer, ByteLength: uv0Size, ByteStride: vec2Stride,
		})
		out.AddAccessor(uv0Accessor, interop.Accessor{
			Type: interop.VEC2, ComponentType: interop.FLOAT,
			Count: uint64(len(src.UV0)), BufferView: uv0View,
		})

		if len(src.UV2) != 0 {
			uv2View := e.nextID()
			out.AddBufferView(uv2View, interop.BufferView{
				Buffer:     uvBuffer,
				ByteOffset: uv0Size,
				ByteLength: uint64(len(src.UV2) * vec2Stride),
				ByteStride: vec2Stride,
			})
			out.AddAccessor(uv1Accessor, interop.Accessor{
				Type: interop.VEC2, ComponentType: interop.FLOAT,
				Count: uint64(len(src.UV2)), BufferView: uv2View,
			})
		} else {
			out.AddAccessor(uv1Accessor, interop.Accessor{
				Type: interop.VEC2, ComponentType: interop.FLOAT,
				Count: uint64(len(src.UV0)), BufferView: uv0View,
			})
		}
	}

	if hasSkin {
		joints := make([]byte, len(src.BoneWeights)*vec4Stride)
		weights := make([]byte, len(src.BoneWeights)*vec4Stride)
		for i, bw := range src.BoneWeights {
			for k := 0; k < 4; k++ {
				binary.LittleEndian.PutUint32(joints[i*vec4Stride+k*4:], uint32(bw.Joints[k]))
				putFloat(weights[i*vec4Stride+k*4:], bw.Weights[k])
			}
		}

		jointBuffer := e.nextID()
		weightBuffer := e.nextID()
		out.AddBuffer(jointBuffer, joints)
		out.AddBuffer(weightBuffer, weights)
		jointView := e.nextID()
		weightView := e.nextID()
		out.AddBufferView(jointView, interop.BufferView{
			Buffer: jointBuffer, ByteLength: uint64(len(joints)), ByteStride: vec4Stride,
		})
		out.AddBufferView(weightView, interop.BufferView{
			Buffer: weightBuffer, ByteLength: uint64(len(weights)), ByteStride: vec4Stride,
		})
		out.AddAccessor(jointAccessor, interop.Accessor{
			Type: interop.VEC4, ComponentType: interop.INT,
			Count: uint64(len(src.BoneWeights)), BufferView: jointView,
		})
		out.AddAccessor(weightAccessor, interop.Accessor{
			Type: interop.VEC4, ComponentType: interop.FLOAT,
			Count: uint64(len(src.BoneWeights)), BufferView: weightView,
		})
	}

	if len(src.Bindposes) != 0 {
		out.AddAccessor(out.InverseBindMatricesAccessor, interop.Accessor{
			Type: interop.MAT4, ComponentType: interop.FLOAT,
			Count: uint64(len(src.Bindposes)), BufferView: e.mat4Buffer(src.Bindposes),
		})
	}

	stride := IndexStride(axes, src)
	if stride == 2 && len(src.Positions) > 0x10000 {
		utils.LogWarn("[mesh] Mesh %q has %d vertices but is packed with 16 bit indices", src.Name, len(src.Positions))
	}
	indexView := e.addBufferAndView(PackIndices(src.Indices, stride), uint64(stride))
	indexComponent := interop.UINT
	if stride == 2 {
		indexComponent = interop.USHORT
	}

	attributes := []interop.Attribute{
		{Semantic: interop.POSITION, Accessor: positionAccessor},
		{Semantic: interop.NORMAL, Accessor: normalAccessor},
	}
	if hasTangents {
		attributes = append(attributes, interop.Attribute{Semantic: interop.TANGENT, Accessor: tangentAccessor})
	}
	attributes = append(attributes,
		interop.Attribute{Semantic: interop.TEXCOORD_0, Accessor: uv0Accessor},
		interop.Attribute{Semantic: interop.TEXCOORD_1, Accessor: uv1Accessor})
	if hasSkin {
		attributes = append(attributes,
			interop.Attribute{Semantic: interop.JOINTS_0, Accessor: jointAccessor},
			interop.Attribute{Semantic: interop.WEIGHTS_0, Accessor: weightAccessor})
	}

	out.PrimitiveArrays = make([]interop.PrimitiveArray, len(src.SubMeshes))
	for i, sm := range src.SubMeshes {
		prim := &out.PrimitiveArrays[i]
		prim.Attributes = append([]interop.Attribute(nil), attributes...)
		prim.Mode = interop.TRIANGLES
		prim.IndicesAccessor = e.nextID()
		out.AddAccessor(prim.IndicesAccessor, interop.Accessor{
			Type:          interop.SCALAR,
			ComponentType: indexComponent,
			Count:         uint64(sm.IndexCount),
			BufferView:    indexView,
			ByteOffset:    uint64(sm.IndexStart) * uint64(stride),
		})
	}

	return out, nil
}
