package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/geometry_source/config"
	"github.com/mogaika/geometry_source/geometry"
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/store"
)

const boxYaml = `
name: Box
textures:
  - path: Assets/crate.png
materials:
  - path: Assets/crate.mat
    textures:
      _MainTex: {texture: Assets/crate.png}
meshes:
  - key: tri
    name: Tri
    path: Assets/tri.asset
    positions: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
    normals: [[0, 0, 1], [0, 0, 1], [0, 0, 1]]
    uv0: [[0, 0], [1, 0], [0, 1]]
    indices: [0, 1, 2]
    index16: true
objects:
  - name: Crate
    children:
      - name: Body
        position: [0, 0, 1]
        mesh: {mesh: tri, materials: [Assets/crate.mat]}
`

func newTestServer(t *testing.T) (*Server, *geometry.Source, *store.GeometryStore) {
	root := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.NRGBA{0, 255, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Assets"), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Assets", "crate.png"), buf.Bytes(), 0666))

	sc, err := scene.Parse([]byte(boxYaml), root)
	require.NoError(t, err)
	settings := config.Default()
	settings.AssetRoot = root
	settings.CachePath = filepath.Join(root, "cache")

	gs := store.NewGeometryStore()
	src, err := geometry.NewSource(sc, settings, gs)
	require.NoError(t, err)
	require.True(t, src.ExtractScene(interop.FORCE_NOTHING, false, nil))
	return NewServer(src, gs), src, gs
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	s.Router("").ServeHTTP(rec, req)
	return rec
}

func TestResources(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := get(t, s, "/json/resources?kind=texture")
	require.Equal(t, http.StatusOK, rec.Code)

	var metas []store.Meta
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metas))
	require.Len(t, metas, 1)
	assert.Equal(t, store.KindTexture, metas[0].Kind)

	rec = get(t, s, fmt.Sprintf("/json/resource/%d", metas[0].ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var tex interop.Texture
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tex))
	assert.Equal(t, uint32(2), tex.Width)
	assert.Empty(t, tex.Data)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/json/resource/nope").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/json/resource/12345").Code)
}

func TestScene(t *testing.T) {
	s, src, _ := newTestServer(t)
	rec := get(t, s, "/json/scene")
	require.Equal(t, http.StatusOK, rec.Code)

	var tree struct {
		Name  string        `json:"name"`
		Roots []sceneObject `json:"roots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree))
	assert.Equal(t, "Box", tree.Name)
	require.Len(t, tree.Roots, 1)
	require.Len(t, tree.Roots[0].Children, 1)
	body := src.Scene().FindGameObject("Crate/Body")
	assert.Equal(t, src.FindResourceID(body.Handle()), tree.Roots[0].Children[0].ResourceID)
}

func TestExportNode(t *testing.T) {
	s, src, gs := newTestServer(t)
	crate := src.FindResourceID(src.Scene().FindGameObject("Crate").Handle())

	doc, err := ExportGLTF(gs, crate)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, []uint32{1}, doc.Nodes[0].Children)
	require.NotNil(t, doc.Nodes[1].Mesh)
	assert.Equal(t, [3]float32{0, 0, -1}, doc.Nodes[1].Translation)
	require.Len(t, doc.Materials, 1)
	require.Len(t, doc.Textures, 1)
	assert.Equal(t, gltf.Index(0), doc.Meshes[0].Primitives[0].Material)

	rec := get(t, s, fmt.Sprintf("/export/%d", crate))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("glTF")))
}

func TestPreview(t *testing.T) {
	s, _, gs := newTestServer(t)
	var texID interop.ResourceID
	for _, m := range gs.Resources() {
		if m.Kind == store.KindTexture {
			texID = m.ID
		}
	}
	require.NotZero(t, texID)

	rec := get(t, s, fmt.Sprintf("/preview/%d/png", texID))
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())

	assert.Equal(t, http.StatusNotFound, get(t, s, "/preview/99/png").Code)
}

func TestDump(t *testing.T) {
	s, src, _ := newTestServer(t)
	body := src.FindResourceID(src.Scene().FindGameObject("Crate/Body").Handle())
	rec := get(t, s, fmt.Sprintf("/dump/resource/%d", body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Body")
}
