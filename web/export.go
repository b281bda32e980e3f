package web

import (
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/mat"
	"github.com/mogaika/geometry_source/mesh"
	"github.com/mogaika/geometry_source/store"
	"github.com/mogaika/geometry_source/txr"
	"github.com/mogaika/geometry_source/utils/gltfutils"
)

const exportAxes = interop.AxesGl

// exporter writes stored resources into one glTF document, each resource
// at most once
type exporter struct {
	gs       *store.GeometryStore
	cacher   *gltfutils.GLTFCacher
	children map[interop.ResourceID][]interop.ResourceID
}

func newExporter(gs *store.GeometryStore) *exporter {
	e := &exporter{
		gs:       gs,
		cacher:   gltfutils.NewCacher(),
		children: make(map[interop.ResourceID][]interop.ResourceID),
	}
	for _, meta := range gs.Resources() {
		if meta.Kind != store.KindNode {
			continue
		}
		if n, ok := gs.Node(meta.ID); ok && n.ParentID != 0 {
			e.children[n.ParentID] = append(e.children[n.ParentID], meta.ID)
		}
	}
	return e
}

func (e *exporter) texture(id interop.ResourceID) (uint32, error) {
	if cached, ok := e.cacher.GetCached(id).(*txr.GLTFTextureExported); ok {
		return cached.TextureIndex, nil
	}
	e.gs.EnsureResourceIsLoaded(id)
	t, ok := e.gs.Texture(id)
	if !ok {
		return 0, errors.Errorf("Texture %d is not stored", id)
	}
	gte, err := txr.ExportGLTF(id, t, e.cacher)
	if err != nil {
		return 0, err
	}
	return gte.TextureIndex, nil
}

func (e *exporter) material(id interop.ResourceID) (uint32, error) {
	if cached, ok := e.cacher.GetCached(id).(*mat.GLTFMaterialExported); ok {
		return cached.MaterialId, nil
	}
	e.gs.EnsureResourceIsLoaded(id)
	m, ok := e.gs.Material(id)
	if !ok {
		return 0, errors.Errorf("Material %d is not stored", id)
	}
	glme, err := mat.ExportGLTF(id, m, e.cacher, e.texture)
	if err != nil {
		return 0, err
	}
	return glme.MaterialId, nil
}

// mesh exports a stored mesh. Materials of the first node using it stick,
// node materials win over the ones recorded in the primitives.
func (e *exporter) mesh(id interop.ResourceID, materials []interop.ResourceID) (uint32, error) {
	if cached, ok := e.cacher.GetCached(id).(*mesh.GLTFMeshExported); ok {
		return cached.MeshIndex, nil
	}
	e.gs.EnsureResourceIsLoaded(id)
	m, ok := e.gs.Mesh(id, exportAxes)
	if !ok {
		return 0, errors.Errorf("Mesh %d is not stored", id)
	}
	exported, err := mesh.ExportGLTF(id, m, exportAxes, e.cacher)
	if err != nil {
		return 0, err
	}
	for i, primitive := range exported.GLTFMesh.Primitives {
		materialID := m.PrimitiveArrays[i].Material
		if i < len(materials) {
			materialID = materials[i]
		}
		if materialID == 0 {
			continue
		}
		idx, err := e.material(materialID)
		if err != nil {
			return 0, errors.Wrapf(err, "Mesh %q", m.Name)
		}
		primitive.Material = gltf.Index(idx)
	}
	return exported.MeshIndex, nil
}

func glRotation(q [4]float32) [4]float32 {
	return [4]float32{-q[0], -q[1], q[2], q[3]}
}

// node exports a node and everything under it
func (e *exporter) node(id interop.ResourceID) (uint32, error) {
	n, ok := e.gs.Node(id)
	if !ok {
		return 0, errors.Errorf("Node %d is not stored", id)
	}
	t := n.Transform
	gnode := &gltf.Node{
		Name:        n.Name,
		Translation: mesh.ConvertVec3(exportAxes, t.Position),
		Rotation:    glRotation([4]float32{t.Rotation.V[0], t.Rotation.V[1], t.Rotation.V[2], t.Rotation.W}),
		Scale:       t.Scale,
	}
	if n.DataType == interop.NodeDataMesh && n.DataID != 0 {
		idx, err := e.mesh(n.DataID, n.MaterialIDs)
		if err != nil {
			return 0, errors.Wrapf(err, "Node %q", n.Name)
		}
		gnode.Mesh = gltf.Index(idx)
	}

	nodeIndex := uint32(len(e.cacher.Doc.Nodes))
	e.cacher.Doc.Nodes = append(e.cacher.Doc.Nodes, gnode)
	for _, child := range e.children[id] {
		childIndex, err := e.node(child)
		if err != nil {
			return 0, err
		}
		gnode.Children = append(gnode.Children, childIndex)
	}
	return nodeIndex, nil
}

// ExportGLTF builds a document for a node subtree or a single mesh
func ExportGLTF(gs *store.GeometryStore, id interop.ResourceID) (*gltf.Document, error) {
	e := newExporter(gs)
	if _, ok := gs.Node(id); ok {
		if _, err := e.node(id); err != nil {
			return nil, err
		}
		return e.cacher.Doc, nil
	}
	meshIndex, err := e.mesh(id, nil)
	if err != nil {
		return nil, err
	}
	e.cacher.Doc.Nodes = append(e.cacher.Doc.Nodes, &gltf.Node{Name: gs.UidToPath(id), Mesh: gltf.Index(meshIndex)})
	return e.cacher.Doc, nil
}
