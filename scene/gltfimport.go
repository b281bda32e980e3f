package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/geometry_source/utils"
)

// ImportGLTFMesh converts one glTF mesh into source space:
// z is negated, v is flipped and triangle winding reversed.
// Each triangle primitive becomes a submesh.
func ImportGLTFMesh(fileName string, meshIndex int) (*Mesh, error) {
	doc, err := gltf.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open gltf %q", fileName)
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, errors.Errorf("Gltf %q has %d meshes, requested %d", fileName, len(doc.Meshes), meshIndex)
	}
	gm := doc.Meshes[meshIndex]
	m := &Mesh{Name: gm.Name, Index16: true}

	for iPrim, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			utils.LogWarn("[scene] Mesh %q primitive %d is not triangles, skipped", gm.Name, iPrim)
			continue
		}
		posAccessor, ok := prim.Attributes["POSITION"]
		if !ok {
			return nil, errors.Errorf("Mesh %q primitive %d has no positions", gm.Name, iPrim)
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posAccessor], nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read positions")
		}
		base := uint32(len(m.Positions))
		for _, p := range positions {
			m.Positions = append(m.Positions, mgl32.Vec3{p[0], p[1], -p[2]})
		}

		if idx, ok := prim.Attributes["NORMAL"]; ok {
			normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to read normals")
			}
			for _, n := range normals {
				m.Normals = append(m.Normals, mgl32.Vec3{n[0], n[1], -n[2]})
			}
		}
		if idx, ok := prim.Attributes["TANGENT"]; ok {
			tangents, err := modeler.ReadTangent(doc, doc.Accessors[idx], nil)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to read tangents")
			}
			for _, t := range tangents {
				m.Tangents = append(m.Tangents, mgl32.Vec4{t[0], t[1], -t[2], -t[3]})
			}
		}
		for attr, dst := range map[string]*[]mgl32.Vec2{"TEXCOORD_0": &m.UV0, "TEXCOORD_1": &m.UV2} {
			idx, ok := prim.Attributes[attr]
			if !ok {
				continue
			}
			uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to read %s", attr)
			}
			for _, uv := range uvs {
				*dst = append(*dst, mgl32.Vec2{uv[0], 1 - uv[1]})
			}
		}

		jIdx, hasJoints := prim.Attributes["JOINTS_0"]
		wIdx, hasWeights := prim.Attributes["WEIGHTS_0"]
		if hasJoints && hasWeights {
			joints, err := modeler.ReadJoints(doc, doc.Accessors[jIdx], nil)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to read joints")
			}
			weights, err := modeler.ReadWeights(doc, doc.Accessors[wIdx], nil)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to read weights")
			}
			for i := range joints {
				var bw BoneWeight
				for k := 0; k < 4; k++ {
					bw.Joints[k] = int32(joints[i][k])
				}
				if i < len(weights) {
					bw.Weights = weights[i]
				}
				m.BoneWeights = append(m.BoneWeights, bw)
			}
		}

		var indices []uint32
		if prim.Indices != nil {
			acc := doc.Accessors[*prim.Indices]
			if acc.ComponentType != gltf.ComponentUshort && acc.ComponentType != gltf.ComponentUbyte {
				m.Index16 = false
			}
			if indices, err = modeler.ReadIndices(doc, acc, nil); err != nil {
				return nil, errors.Wrapf(err, "Failed to read indices")
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		start := uint32(len(m.Indices))
		for i := 0; i+2 < len(indices); i += 3 {
			m.Indices = append(m.Indices, indices[i+2]+base, indices[i+1]+base, indices[i]+base)
		}
		m.SubMeshes = append(m.SubMeshes, SubMesh{IndexStart: start, IndexCount: uint32(len(m.Indices)) - start})
	}

	if len(m.Positions) > 0xffff {
		m.Index16 = false
	}

	bindposes, err := readBindposes(doc, meshIndex)
	if err != nil {
		return nil, err
	}
	m.Bindposes = bindposes
	return m, nil
}

// inverse bind matrices of the first skin used together with the mesh
func readBindposes(doc *gltf.Document, meshIndex int) ([]mgl32.Mat4, error) {
	for _, node := range doc.Nodes {
		if node.Mesh == nil || int(*node.Mesh) != meshIndex || node.Skin == nil {
			continue
		}
		skin := doc.Skins[*node.Skin]
		if skin.InverseBindMatrices == nil {
			return nil, nil
		}
		data, err := modeler.ReadAccessor(doc, doc.Accessors[*skin.InverseBindMatrices], nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read inverse bind matrices")
		}
		mats, ok := data.([][4][4]float32)
		if !ok {
			return nil, errors.Errorf("Inverse bind matrices have unexpected type %T", data)
		}
		result := make([]mgl32.Mat4, len(mats))
		for i, mat := range mats {
			for c := 0; c < 4; c++ {
				for r := 0; r < 4; r++ {
					result[i][c*4+r] = mat[c][r]
				}
			}
		}
		return result, nil
	}
	return nil, nil
}
