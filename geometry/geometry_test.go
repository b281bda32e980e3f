package geometry

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/geometry_source/config"
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/store"
)

const levelYaml = `
name: Level
textures:
  - path: Assets/Textures/brick.png
materials:
  - path: Assets/Materials/brick.mat
    textures:
      _MainTex: {texture: Assets/Textures/brick.png}
meshes:
  - key: quad
    name: Quad
    path: Assets/Meshes/quad.asset
    positions: [[0, 0, 0], [1, 0, 0], [1, 1, 0], [0, 1, 0]]
    normals: [[0, 0, 1], [0, 0, 1], [0, 0, 1], [0, 0, 1]]
    uv0: [[0, 0], [1, 0], [1, 1], [0, 1]]
    indices: [0, 1, 2, 0, 2, 3]
    submeshes: [[0, 3], [3, 3]]
    index16: true
  - key: skin
    name: Skin
    path: Assets/Meshes/skin.asset
    local_id: 7
    positions: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
    normals: [[0, 0, 1], [0, 0, 1], [0, 0, 1]]
    uv0: [[0, 0], [1, 0], [0, 1]]
    indices: [0, 1, 2]
    index16: true
    joints: [[0, 0, 0, 0], [1, 0, 0, 0], [1, 0, 0, 0]]
    weights: [[1, 0, 0, 0], [1, 0, 0, 0], [1, 0, 0, 0]]
objects:
  - name: Root
    streamable_node: {}
    children:
      - name: Quad
        position: [0, 1, 0]
        streamable_node: {}
        mesh: {mesh: quad, materials: [Assets/Materials/brick.mat, Assets/Materials/brick.mat]}
      - name: Armature
        skeleton_root: {}
        children:
          - name: Hip
            position: [0, 1, 0]
            children:
              - name: Offset
                position: [0, 0, 2]
                children:
                  - name: Head
                    position: [0, 0.5, 0]
      - name: Body
        skinned_mesh: {mesh: skin, root_bone: Root/Armature/Hip, bones: [Root/Armature/Hip, Root/Armature/Hip/Offset/Head]}
      - name: Lamp
        light: {type: point, color: [1, 1, 1, 1], intensity: 2, range: 10}
      - name: Portal
        link: {url: "https://example.com/world", query_url: "https://example.com/q"}
`

func writeBrick(t *testing.T, root string) {
	dir := filepath.Join(root, "Assets", "Textures")
	require.NoError(t, os.MkdirAll(dir, 0777))
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{200, 80, 40, 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "brick.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func testSettings(root string, mode config.Mode) config.Settings {
	s := config.Default()
	s.Mode = mode
	s.AssetRoot = root
	s.CachePath = filepath.Join(root, "cache")
	return s
}

func loadLevel(t *testing.T, root string) *scene.Scene {
	sc, err := scene.Parse([]byte(levelYaml), root)
	require.NoError(t, err)
	return sc
}

func newLevel(t *testing.T, mode config.Mode) (*Source, *store.GeometryStore) {
	root := t.TempDir()
	writeBrick(t, root)
	gs := store.NewGeometryStore()
	src, err := NewSource(loadLevel(t, root), testSettings(root, mode), gs)
	require.NoError(t, err)
	return src, gs
}

func firstOf[T scene.Object](sc *scene.Scene) scene.Handle {
	for _, h := range sc.Handles() {
		if _, ok := sc.Get(h).(T); ok {
			return h
		}
	}
	return scene.NilHandle
}

func nodeOf(t *testing.T, src *Source, gs *store.GeometryStore, path string) *interop.Node {
	g := src.Scene().FindGameObject(path)
	require.NotNil(t, g, path)
	id := src.FindResourceID(g.Handle())
	require.NotZero(t, id, path)
	node, ok := gs.Node(id)
	require.True(t, ok, path)
	return node
}

func TestExtractStaticMesh(t *testing.T) {
	src, gs := newLevel(t, config.ModeAuthor)
	require.True(t, src.ExtractScene(interop.FORCE_NOTHING, false, nil))
	assert.Zero(t, src.PendingTextures())

	node := nodeOf(t, src, gs, "Root/Quad")
	assert.Equal(t, interop.NodeDataMesh, node.DataType)
	assert.NotZero(t, node.ParentID)
	assert.Equal(t, float32(1), node.Transform.Position.Y())

	for _, axes := range meshAxes {
		m, ok := gs.Mesh(node.DataID, axes)
		require.True(t, ok, "%v", axes)
		assert.Len(t, m.PrimitiveArrays, 2)
	}

	// the same material twice gets the same id
	require.Len(t, node.MaterialIDs, 2)
	assert.Equal(t, node.MaterialIDs[0], node.MaterialIDs[1])
	material, ok := gs.Material(node.MaterialIDs[0])
	require.True(t, ok)
	texID := material.PBRMetallicRoughness.BaseColorTexture.Index
	require.NotZero(t, texID)
	assert.True(t, gs.IsTextureStored(texID))
	assert.Equal(t, "Textures/brick_-_png", gs.UidToPath(texID))

	// ids of assets depend on their path only
	assert.Equal(t, gs.GetOrGenerateUid("Meshes/quad_-_asset~~Quad_0"), node.DataID)

	root := nodeOf(t, src, gs, "Root")
	assert.Zero(t, root.ParentID)
	assert.Equal(t, src.FindResourceID(src.Scene().FindGameObject("Root").Handle()), node.ParentID)
	assert.Equal(t, node.ParentID, src.Scene().FindGameObject("Root").StreamableNode.NodeID)

	assert.True(t, src.CheckForErrors())
}

func TestExtractIsIdempotent(t *testing.T) {
	src, gs := newLevel(t, config.ModeAuthor)
	require.True(t, src.ExtractScene(interop.FORCE_NOTHING, false, nil))
	quad := src.Scene().FindGameObject("Root/Quad").Handle()
	first := src.FindResourceID(quad)
	before := len(gs.Resources())

	assert.Equal(t, first, src.AddNode(quad, interop.FORCE_NOTHING, false, false))
	assert.Equal(t, first, src.AddNode(quad, interop.FORCE_EVERYTHING, false, false))
	assert.Equal(t, before, len(gs.Resources()))
}

func TestIDsSurviveReload(t *testing.T) {
	root := t.TempDir()
	writeBrick(t, root)
	settings := testSettings(root, config.ModeAuthor)

	first, err := NewSource(loadLevel(t, root), settings, store.NewGeometryStore())
	require.NoError(t, err)
	require.True(t, first.ExtractScene(interop.FORCE_NOTHING, false, nil))
	require.True(t, first.SaveToDisk())

	meshH := firstOf[*scene.Mesh](first.Scene())
	texH := firstOf[*scene.Texture](first.Scene())
	matH := firstOf[*scene.Material](first.Scene())

	second, err := NewSource(loadLevel(t, root), settings, store.NewGeometryStore())
	require.NoError(t, err)
	require.True(t, second.LoadFromDisk())
	for _, h := range []scene.Handle{meshH, texH, matH} {
		assert.Equal(t, first.FindResourceID(h), second.FindResourceID(h), "%v", h)
	}

	require.NoError(t, second.RestoreSession())
	lamp := second.Scene().FindGameObject("Root/Lamp").Handle()
	assert.Equal(t, first.FindResourceID(lamp), second.FindResourceID(lamp))

	// reused ids are found in the store without extracting again
	assert.Equal(t, first.FindResourceID(meshH), second.AddMesh(meshH, scene.NilHandle, interop.FORCE_NOTHING, false))
}

func TestSkeleton(t *testing.T) {
	src, gs := newLevel(t, config.ModeAuthor)
	require.True(t, src.ExtractScene(interop.FORCE_NOTHING, false, nil))
	sc := src.Scene()

	armature := sc.FindGameObject("Root/Armature")
	require.NotNil(t, armature.SkeletonRoot)
	assert.Equal(t, "Level.Armature", armature.SkeletonRoot.AssetPath)

	armatureNode := nodeOf(t, src, gs, "Root/Armature")
	assert.Equal(t, interop.NodeDataSkeleton, armatureNode.DataType)
	skeleton, ok := gs.Skeleton(armatureNode.DataID)
	require.True(t, ok)

	hip := src.FindResourceID(sc.FindGameObject("Root/Armature/Hip").Handle())
	head := src.FindResourceID(sc.FindGameObject("Root/Armature/Hip/Offset/Head").Handle())
	assert.Equal(t, []interop.ResourceID{src.FindResourceID(armature.Handle()), hip, head}, skeleton.BoneIDs)

	// the head hangs off the hip, the offset folded into it
	headNode := nodeOf(t, src, gs, "Root/Armature/Hip/Offset/Head")
	assert.Equal(t, hip, headNode.ParentID)
	assert.Equal(t, interop.NodeDataNone, headNode.DataType)
	assert.InDelta(t, 2, headNode.Transform.Position.Z(), 1e-5)
	assert.InDelta(t, 0.5, headNode.Transform.Position.Y(), 1e-5)

	body := nodeOf(t, src, gs, "Root/Body")
	assert.Equal(t, interop.NodeDataMesh, body.DataType)
	assert.Equal(t, src.FindResourceID(armature.Handle()), body.SkeletonNodeID)
	assert.Equal(t, []int16{1, 2}, body.JointIndices)
	assert.Equal(t, gs.GetOrGenerateUid("Meshes/skin_-_asset~~Skin_7"), body.DataID)
}

func TestLightAndLink(t *testing.T) {
	src, gs := newLevel(t, config.ModeAuthor)
	require.True(t, src.ExtractScene(interop.FORCE_NOTHING, false, nil))

	lamp := nodeOf(t, src, gs, "Root/Lamp")
	assert.Equal(t, interop.NodeDataLight, lamp.DataType)
	assert.NotZero(t, lamp.DataID)
	assert.Equal(t, interop.LightPoint, lamp.LightType)
	assert.InDelta(t, 2, lamp.LightColour[0], 1e-5)
	assert.Equal(t, float32(10), lamp.LightRange)
	assert.Equal(t, float32(2), lamp.LightRadius)
	assert.Equal(t, [3]float32{0, 0, 1}, lamp.LightDirection)

	portal := nodeOf(t, src, gs, "Root/Portal")
	assert.Equal(t, interop.NodeDataLink, portal.DataType)
	assert.Equal(t, "https://example.com/world", portal.URL)
	assert.Equal(t, "https://example.com/q", portal.QueryURL)
	assert.NotEqual(t, lamp.DataID, portal.DataID)

	// forcing keeps component ids
	lampID := src.FindResourceID(src.Scene().FindGameObject("Root/Lamp").Handle())
	src.AddNode(src.Scene().FindGameObject("Root/Lamp").Handle(), interop.FORCE_NODES, false, false)
	again, _ := gs.Node(lampID)
	assert.Equal(t, lamp.DataID, again.DataID)
}

func TestRuntimeDoesNotEncode(t *testing.T) {
	src, gs := newLevel(t, config.ModeRuntime)
	texH := firstOf[*scene.Texture](src.Scene())
	assert.Zero(t, src.AddTexture(texH, scene.NilHandle, interop.FORCE_NOTHING, interop.CONVERT_NOTHING))
	assert.Zero(t, src.PendingTextures())

	meshH := firstOf[*scene.Mesh](src.Scene())
	assert.Zero(t, src.AddMesh(meshH, scene.NilHandle, interop.FORCE_NOTHING, false))
	assert.Empty(t, gs.Resources())
}

// skewedNode disagrees about the size of the node record
type skewedNode struct {
	*store.GeometryStore
}

func (n skewedNode) GetStructSize(name string) int64 {
	if name == interop.StructNode {
		return interop.StructSize(name) + 4
	}
	return interop.StructSize(name)
}

func TestStructMismatchRefusesNodes(t *testing.T) {
	root := t.TempDir()
	writeBrick(t, root)
	gs := store.NewGeometryStore()
	src, err := NewSource(loadLevel(t, root), testSettings(root, config.ModeAuthor), skewedNode{gs})
	require.NoError(t, err)

	lamp := src.Scene().FindGameObject("Root/Lamp").Handle()
	assert.Zero(t, src.AddNode(lamp, interop.FORCE_NOTHING, false, false))
	assert.False(t, gs.IsNodeStored(src.FindResourceID(lamp)))

	// meshes use another record and still go through
	meshH := firstOf[*scene.Mesh](src.Scene())
	assert.NotZero(t, src.AddMesh(meshH, scene.NilHandle, interop.FORCE_NOTHING, false))
}

func TestRemoveLostNodes(t *testing.T) {
	src, gs := newLevel(t, config.ModeAuthor)
	require.True(t, src.ExtractScene(interop.FORCE_NOTHING, false, nil))

	lamp := src.Scene().FindGameObject("Root/Lamp").Handle()
	lampID := src.FindResourceID(lamp)
	require.True(t, gs.IsNodeStored(lampID))

	src.Scene().Remove(lamp)
	assert.Equal(t, 1, src.RemoveLostNodes())
	assert.False(t, gs.IsNodeStored(lampID))
	assert.Zero(t, src.FindResourceID(lamp))
	assert.Zero(t, src.RemoveLostNodes())
}

func TestTextCanvasWithoutFont(t *testing.T) {
	root := t.TempDir()
	sc := scene.NewScene("Signs")
	g := sc.NewGameObject("Sign", scene.NilHandle)
	g.TextCanvas = scene.NewTextCanvas()
	g.TextCanvas.Text = "hello"

	gs := store.NewGeometryStore()
	src, err := NewSource(sc, testSettings(root, config.ModeAuthor), gs)
	require.NoError(t, err)

	id := src.AddNode(g.Handle(), interop.FORCE_NOTHING, false, false)
	require.NotZero(t, id)
	node, ok := gs.Node(id)
	require.True(t, ok)
	assert.NotEqual(t, interop.NodeDataTextCanvas, node.DataType)
	assert.Zero(t, gs.PathToUid(textCanvasFolder+"Sign"))
}

func TestClearData(t *testing.T) {
	src, gs := newLevel(t, config.ModeAuthor)
	require.True(t, src.ExtractScene(interop.FORCE_NOTHING, false, nil))
	require.NotEmpty(t, gs.Resources())

	src.ClearData()
	assert.Empty(t, gs.Resources())
	assert.Zero(t, src.FindResourceID(src.Scene().FindGameObject("Root/Quad").Handle()))
}

func TestWatcherUpdate(t *testing.T) {
	root := t.TempDir()
	writeBrick(t, root)
	gs := store.NewGeometryStore()
	src, err := NewSource(loadLevel(t, root), testSettings(root, config.ModeAuthor), gs)
	require.NoError(t, err)
	require.True(t, src.ExtractScene(interop.FORCE_NOTHING, false, nil))

	brick := filepath.Join(root, "Assets", "Textures", "brick.png")
	owners := src.Owners([]string{brick})
	require.Len(t, owners, 1)
	assert.Equal(t, "Quad", src.Scene().GameObject(owners[0]).Name)
	assert.Empty(t, src.Owners([]string{filepath.Join(root, "unused.png")}))

	w, err := NewWatcher(src, func() (*scene.Scene, error) {
		return scene.Parse([]byte(levelYaml), root)
	}, false, nil)
	require.NoError(t, err)
	defer w.Close()

	var updated []string
	w.OnUpdate = func(changed []string) { updated = changed }
	quadID := src.FindResourceID(owners[0])

	assert.Equal(t, 1, w.Update([]string{brick}))
	assert.Equal(t, []string{brick}, updated)
	assert.Equal(t, quadID, src.FindResourceID(owners[0]))
	assert.FileExists(t, filepath.Join(root, "cache", "Level.identity.yaml"))
}

func TestWatcherSceneChange(t *testing.T) {
	root := t.TempDir()
	writeBrick(t, root)
	sceneFile := filepath.Join(root, "level.yaml")
	require.NoError(t, os.WriteFile(sceneFile, []byte(levelYaml), 0666))

	load := func() (*scene.Scene, error) { return scene.Load(sceneFile, root) }
	sc, err := load()
	require.NoError(t, err)
	gs := store.NewGeometryStore()
	src, err := NewSource(sc, testSettings(root, config.ModeAuthor), gs)
	require.NoError(t, err)
	require.True(t, src.ExtractScene(interop.FORCE_NOTHING, false, nil))
	quad := src.FindResourceID(sc.FindGameObject("Root/Quad").Handle())

	w, err := NewWatcher(src, load, false, nil)
	require.NoError(t, err)
	defer w.Close()
	w.SceneFile = sceneFile

	assert.Equal(t, 1, w.Update([]string{sceneFile}))
	assert.NotSame(t, sc, src.Scene())
	assert.Equal(t, quad, src.FindResourceID(src.Scene().FindGameObject("Root/Quad").Handle()))
	assert.True(t, gs.IsNodeStored(quad))
}
