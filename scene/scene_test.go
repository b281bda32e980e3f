package scene

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchy(t *testing.T) {
	s := NewScene("test")
	root := s.NewGameObject("Root", NilHandle)
	root.LocalPosition = mgl32.Vec3{1, 0, 0}
	child := s.NewGameObject("Child", root.Handle())
	child.LocalPosition = mgl32.Vec3{0, 2, 0}
	grandchild := s.NewGameObject("Leaf", child.Handle())

	assert.Equal(t, "Root/Child/Leaf", grandchild.Path())
	assert.Equal(t, grandchild, s.FindGameObject("Root/Child/Leaf"))
	assert.Nil(t, s.FindGameObject("Root/Nope"))
	assert.True(t, grandchild.IsDescendantOf(root.Handle()))
	assert.False(t, root.IsDescendantOf(child.Handle()))

	pos, _, _ := grandchild.GlobalTransform()
	assert.InDeltaSlice(t, []float32{1, 2, 0}, pos[:], 1e-5)

	root.Active = false
	assert.False(t, grandchild.ActiveInHierarchy())

	s.Remove(child.Handle())
	assert.False(t, s.Alive(grandchild.Handle()))
	assert.Empty(t, root.Children)
	assert.True(t, s.Alive(root.Handle()))
}

func TestUnnamedObjectsGetStableNames(t *testing.T) {
	a := NewScene("a").NewGameObject("", NilHandle)
	b := NewScene("b").NewGameObject("", NilHandle)
	assert.NotEmpty(t, a.Name)
	assert.Equal(t, a.Name, b.Name)
}

func TestMaterialSchema(t *testing.T) {
	m := NewMaterial("Brick", LookupShader("Standard"))
	assert.True(t, m.SetFloat("_Metallic", 0.5))
	assert.False(t, m.SetFloat("_NotAProperty", 1))
	assert.False(t, m.SetColor("_Metallic", [4]float32{}))
	assert.True(t, m.HasProperty("_BumpScale"))
	assert.False(t, m.HasProperty("_SpecColor"))
	assert.Equal(t, float32(0.5), m.FloatOr("_Metallic", 0))
	assert.Equal(t, float32(1), m.FloatOr("_GlossMapScale", 1))
	assert.True(t, m.EmissiveIsBlack())
	assert.Equal(t, RenderQueueGeometry, m.EffectiveRenderQueue())

	generic := NewMaterial("Custom", LookupShader("Custom/Toon"))
	assert.False(t, generic.HasProperty("_Color"))
	assert.True(t, generic.SetColor("_Color", [4]float32{1, 0, 0, 1}))
	assert.True(t, generic.HasProperty("_Color"))
}

const testSceneYaml = `
name: Level
textures:
  - path: Assets/Textures/brick.png
materials:
  - path: Assets/Materials/brick.mat
    floats: {_Metallic: 0.25}
    textures:
      _MainTex: {texture: Assets/Textures/brick.png, scale: [2, 2]}
meshes:
  - key: tri
    name: Triangle
    path: Assets/Meshes/tri.asset
    positions: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
    normals: [[0, 0, 1], [0, 0, 1], [0, 0, 1]]
    uv0: [[0, 0], [1, 0], [0, 1]]
    indices: [0, 1, 2]
    index16: true
objects:
  - name: Root
    children:
      - name: Tri
        position: [0, 1, 0]
        mesh: {mesh: tri, materials: [Assets/Materials/brick.mat]}
      - name: Armature
        skeleton_root: {}
        children:
          - name: Hip
      - name: Body
        skinned_mesh: {mesh: tri, root_bone: Root/Armature/Hip, bones: [Root/Armature/Hip]}
      - name: Lamp
        light: {type: point, color: [1, 1, 1, 1], intensity: 2, range: 10}
`

func TestParse(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Assets", "Textures"), 0777))
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	f, err := os.Create(filepath.Join(root, "Assets", "Textures", "brick.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	s, err := Parse([]byte(testSceneYaml), root)
	require.NoError(t, err)
	assert.Equal(t, "Level", s.Name)

	tri := s.FindGameObject("Root/Tri")
	require.NotNil(t, tri)
	require.NotNil(t, tri.MeshFilter)
	mesh := s.Mesh(tri.MeshFilter.Mesh)
	require.NotNil(t, mesh)
	assert.Equal(t, "Triangle", mesh.Name)
	assert.Len(t, mesh.Positions, 3)
	assert.Equal(t, []SubMesh{{IndexStart: 0, IndexCount: 3}}, mesh.SubMeshes)
	assert.True(t, mesh.Readable)

	mat := s.Material(tri.MeshRenderer.Materials[0])
	require.NotNil(t, mat)
	assert.Equal(t, "brick", mat.Name)
	assert.Equal(t, [2]float32{2, 2}, mat.MainTextureScale())
	tex := s.Texture(mat.MainTexture())
	require.NotNil(t, tex)
	assert.Equal(t, 4, tex.Width)
	assert.Equal(t, 2, tex.Height)
	assert.Equal(t, 3, tex.MipCount)
	assert.Equal(t, FormatRGBA32, tex.Format)

	body := s.FindGameObject("Root/Body")
	hip := s.FindGameObject("Root/Armature/Hip")
	require.NotNil(t, body.SkinnedMeshRenderer)
	assert.Equal(t, hip.Handle(), body.SkinnedMeshRenderer.RootBone)
	assert.Equal(t, []Handle{hip.Handle()}, body.SkinnedMeshRenderer.Bones)

	lamp := s.FindGameObject("Root/Lamp")
	require.NotNil(t, lamp.Light)
	assert.Equal(t, float32(10), lamp.Light.Range)
}

func TestParseUnknownReference(t *testing.T) {
	_, err := Parse([]byte(`
objects:
  - name: A
    mesh: {mesh: missing}
`), t.TempDir())
	assert.Error(t, err)
}

func TestParseLegacyCodePage(t *testing.T) {
	// Windows-1252 bytes, not utf-8
	s, err := Parse([]byte("name: Caf\xe9\nobjects:\n  - name: Cr\xe8me\n"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Café", s.Name)
	assert.NotNil(t, s.FindGameObject("Crème"))
}
