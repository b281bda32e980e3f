package mesh

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/utils/gltfutils"
)

type GLTFMeshExported struct {
	MeshIndex uint32
	GLTFMesh  *gltf.Mesh
}

func readFloats(m *interop.Mesh, accessor interop.ResourceID) ([][]float32, error) {
	elements, err := m.AccessorData(accessor)
	if err != nil {
		return nil, err
	}
	result := make([][]float32, len(elements))
	for i, el := range elements {
		v := make([]float32, len(el)/4)
		for c := range v {
			v[c] = getFloat(el[c*4:])
		}
		result[i] = v
	}
	return result, nil
}

func readIndices(m *interop.Mesh, accessor interop.ResourceID) ([]uint32, error) {
	a, ok := m.Accessor(accessor)
	if !ok {
		return nil, errors.Errorf("Index accessor %d not found", accessor)
	}
	elements, err := m.AccessorData(accessor)
	if err != nil {
		return nil, err
	}
	result := make([]uint32, len(elements))
	for i, el := range elements {
		switch a.ComponentType {
		case interop.USHORT:
			result[i] = uint32(binary.LittleEndian.Uint16(el))
		case interop.UINT:
			result[i] = binary.LittleEndian.Uint32(el)
		default:
			return nil, errors.Errorf("Unsupported index component type %v", a.ComponentType)
		}
	}
	return result, nil
}

// toGl brings an encoded vector back to gl axes
func toGl(axes interop.AxesStandard, v []float32) []float32 {
	if axes == interop.AxesEngineering && len(v) >= 3 {
		v[1], v[2] = v[2], -v[1]
	}
	return v
}

// ExportGLTF writes an encoded mesh into the cacher document, one glTF
// primitive per primitive array. Materials are left to the caller.
func ExportGLTF(id interop.ResourceID, m *interop.Mesh, axes interop.AxesStandard, gltfCacher *gltfutils.GLTFCacher) (*GLTFMeshExported, error) {
	if err := checkAxes(axes); err != nil {
		return nil, err
	}
	doc := gltfCacher.Doc
	written := make(map[interop.ResourceID]uint32)

	writeAttribute := func(attr interop.Attribute) (uint32, bool, error) {
		if idx, ok := written[attr.Accessor]; ok {
			return idx, true, nil
		}
		data, err := readFloats(m, attr.Accessor)
		if err != nil {
			return 0, false, errors.Wrapf(err, "Attribute %v", attr.Semantic)
		}
		if len(data) == 0 {
			return 0, false, nil
		}

		var idx uint32
		switch attr.Semantic {
		case interop.POSITION, interop.NORMAL:
			vs := make([][3]float32, len(data))
			for i, v := range data {
				copy(vs[i][:], toGl(axes, v))
			}
			if attr.Semantic == interop.POSITION {
				idx = modeler.WritePosition(doc, vs)
			} else {
				idx = modeler.WriteNormal(doc, vs)
			}
		case interop.TANGENT:
			vs := make([][4]float32, len(data))
			for i, v := range data {
				copy(vs[i][:], toGl(axes, v))
			}
			idx = modeler.WriteTangent(doc, vs)
		case interop.TEXCOORD_0, interop.TEXCOORD_1:
			vs := make([][2]float32, len(data))
			for i, v := range data {
				copy(vs[i][:], v)
			}
			idx = modeler.WriteTextureCoord(doc, vs)
		case interop.WEIGHTS_0:
			vs := make([][4]float32, len(data))
			for i, v := range data {
				copy(vs[i][:], v)
			}
			idx = modeler.WriteWeights(doc, vs)
		case interop.JOINTS_0:
			elements, err := m.AccessorData(attr.Accessor)
			if err != nil {
				return 0, false, err
			}
			vs := make([][4]uint16, len(elements))
			for i, el := range elements {
				for k := 0; k < 4; k++ {
					vs[i][k] = uint16(binary.LittleEndian.Uint32(el[k*4:]))
				}
			}
			idx = modeler.WriteJoints(doc, vs)
		default:
			return 0, false, nil
		}
		written[attr.Accessor] = idx
		return idx, true, nil
	}

	gltfMesh := &gltf.Mesh{Name: m.Name}
	for iPrim, prim := range m.PrimitiveArrays {
		attributes := make(map[string]uint32)
		for _, attr := range prim.Attributes {
			idx, ok, err := writeAttribute(attr)
			if err != nil {
				return nil, errors.Wrapf(err, "Primitive %d", iPrim)
			}
			if ok {
				attributes[attr.Semantic.String()] = idx
			}
		}

		indices, err := readIndices(m, prim.IndicesAccessor)
		if err != nil {
			return nil, errors.Wrapf(err, "Primitive %d", iPrim)
		}
		indicesAccessor := modeler.WriteIndices(doc, indices)

		gltfMesh.Primitives = append(gltfMesh.Primitives, &gltf.Primitive{
			Indices:    gltf.Index(indicesAccessor),
			Attributes: attributes,
			Mode:       gltf.PrimitiveTriangles,
		})
	}

	exported := &GLTFMeshExported{
		MeshIndex: uint32(len(doc.Meshes)),
		GLTFMesh:  gltfMesh,
	}
	doc.Meshes = append(doc.Meshes, gltfMesh)
	gltfCacher.AddCache(id, exported)
	return exported, nil
}

// ExportGLTFDefault builds a standalone document with a single node
func ExportGLTFDefault(id interop.ResourceID, m *interop.Mesh, axes interop.AxesStandard) (*gltf.Document, error) {
	gltfCacher := gltfutils.NewCacher()
	doc := gltfCacher.Doc

	exported, err := ExportGLTF(id, m, axes, gltfCacher)
	if err != nil {
		return nil, err
	}

	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:        "default",
		DoubleSided: true,
	})
	for _, primitive := range exported.GLTFMesh.Primitives {
		primitive.Material = gltf.Index(0)
	}
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name: m.Name,
		Mesh: gltf.Index(exported.MeshIndex),
	})
	return doc, nil
}
