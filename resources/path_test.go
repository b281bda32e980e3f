package resources

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
)

var standardizeTests = []struct {
	in   string
	root string
	out  string
}{
	{"Assets/Textures/brick.png", "Assets/", "Textures/brick_-_png"},
	{"Assets/My Models/crate,v2.fbx~~Crate", "Assets/", "My___Models/crate_--_v2_-_fbx~~Crate"},
	{"Assets\\Win\\file.obj", "Assets/", "Win/file_-_obj"},
	{"Assets/legacy#1.mat", "Assets/", "legacy~1_-_mat"},
	{"Library/unity default resources~~Cube_10202", "Assets/", "Library/unity___default___resources~~Cube_10202"},
	{"", "Assets/", ""},
}

func TestStandardize(t *testing.T) {
	for _, test := range standardizeTests {
		result := Standardize(test.in, test.root)
		if result != test.out {
			t.Errorf("Standardize(%q,%q)=%q; expected %q", test.in, test.root, result, test.out)
		}
		if again := Standardize(result, test.root); again != result {
			t.Errorf("Standardize not idempotent for %q: %q -> %q", test.in, result, again)
		}
		for _, c := range []string{" ", ".", ",", "\\"} {
			if strings.Contains(result, c) {
				t.Errorf("Standardize(%q)=%q contains %q", test.in, result, c)
			}
		}
	}
}

func TestStandardizeLongPath(t *testing.T) {
	long := "Assets/" + strings.Repeat("abcdefghij/", 30) + "mesh.fbx"
	p := Standardize(long, "Assets/")
	assert.True(t, strings.HasPrefix(p, LongPathPrefix), p)
	assert.LessOrEqual(t, len(p), MaxPathLength)
	assert.Equal(t, p, Standardize(long, "Assets/"))
	assert.Equal(t, p, Standardize(p, "Assets/"))
}

func TestUnstandardize(t *testing.T) {
	assert.Equal(t, "Assets/Textures/brick.png", Unstandardize("Textures/brick_-_png", "Assets"))
	assert.Equal(t, "Assets/My Models/crate,v2.fbx", Unstandardize("My___Models/crate_--_v2_-_fbx~~Crate", "Assets/"))
	assert.Equal(t, "Textures/brick.png", Unstandardize("Textures/brick_-_png", ""))
}

func TestPathManagerRefusesDuplicate(t *testing.T) {
	pm := NewPathManager()
	require.True(t, pm.SetResourcePath(1, "Meshes/a_-_fbx~~A"))
	assert.False(t, pm.SetResourcePath(2, "Meshes/a_-_fbx~~A"))
	assert.Equal(t, "", pm.ResourcePath(2))
	assert.True(t, pm.SetResourcePath(1, "Meshes/a_-_fbx~~A"))

	h, ok := pm.ResourceFromPath("Meshes/a_-_fbx~~A")
	assert.True(t, ok)
	assert.Equal(t, scene.Handle(1), h)
}

func TestNonAssetResourcePathSuffix(t *testing.T) {
	pm := NewPathManager()
	p1 := pm.NonAssetResourcePath(10, "Root/Lamp", "Material", "Glow", "Assets/")
	p2 := pm.NonAssetResourcePath(11, "Root/Lamp", "Material", "Glow", "Assets/")
	p3 := pm.NonAssetResourcePath(12, "Root/Lamp", "Material", "Glow", "Assets/")
	assert.Equal(t, "Root/Lamp_Material_Glow", p1)
	assert.Equal(t, "Root/Lamp_Material_Glow1", p2)
	assert.Equal(t, "Root/Lamp_Material_Glow2", p3)
	assert.Equal(t, p1, pm.NonAssetResourcePath(10, "Root/Lamp", "Material", "Glow", "Assets/"))
}

func TestPathManagerSaveLoad(t *testing.T) {
	pm := NewPathManager()
	pm.SetResourcePath(3, "Textures/a_-_png")
	pm.SetResourcePath(4, "Textures/b_-_png")
	fileName := filepath.Join(t.TempDir(), "paths.yaml")
	require.NoError(t, pm.Save(fileName))

	loaded := NewPathManager()
	require.NoError(t, loaded.Load(fileName))
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, "Textures/b_-_png", loaded.ResourcePath(4))
}

func TestPathManagerCheckForDuplicates(t *testing.T) {
	pm := NewPathManager()
	pm.paths[5] = "x"
	pm.paths[2] = "x"
	pm.paths[9] = "y"
	assert.Equal(t, 1, pm.CheckForDuplicates())
	assert.Equal(t, "x", pm.ResourcePath(2))
	assert.Equal(t, "", pm.ResourcePath(5))
}

type fakeLoader map[string]interop.ResourceID

func (f fakeLoader) EnsurePathResourceIsLoaded(path string) interop.ResourceID {
	return f[path]
}

func TestIdentityTable(t *testing.T) {
	table := NewIdentityTable()
	assert.False(t, table.Add(scene.NilHandle, 5))
	assert.False(t, table.Add(1, 0))
	assert.True(t, table.Add(1, 5))
	assert.Equal(t, interop.ResourceID(5), table.Find(1))
	assert.Equal(t, interop.ResourceID(0), table.Find(2))

	loader := fakeLoader{"Textures/a_-_png": 77}
	assert.Equal(t, interop.ResourceID(77), table.FindOrAdd(2, "Textures/a_-_png", loader))
	assert.Equal(t, interop.ResourceID(77), table.Find(2))
	assert.Equal(t, interop.ResourceID(0), table.FindOrAdd(3, "Textures/missing_-_png", loader))
	assert.Equal(t, 2, table.Len())
}

func TestIdentityTableEliminateDuplicates(t *testing.T) {
	table := NewIdentityTable()
	table.Add(7, 100)
	table.Add(3, 100)
	table.Add(5, 200)
	assert.Equal(t, 1, table.EliminateDuplicates())
	assert.Equal(t, interop.ResourceID(100), table.Find(3))
	assert.Equal(t, interop.ResourceID(0), table.Find(7))

	keys, values := table.Export()
	assert.Equal(t, []scene.Handle{3, 5}, keys)
	assert.Equal(t, []interop.ResourceID{100, 200}, values)
}

func TestIdentityTableImportDeduplicates(t *testing.T) {
	table := NewIdentityTable()
	require.NoError(t, table.Import([]scene.Handle{1, 2, 3}, []interop.ResourceID{9, 9, 10}))
	assert.Equal(t, 2, table.Len())
	assert.Error(t, table.Import([]scene.Handle{1}, nil))
}

func TestIdentityTableSaveLoad(t *testing.T) {
	table := NewIdentityTable()
	table.Add(1, 1<<63|42)
	table.Add(2, 17)
	fileName := filepath.Join(t.TempDir(), "ids.yaml")
	require.NoError(t, table.Save(fileName))

	loaded := NewIdentityTable()
	require.NoError(t, loaded.Load(fileName))
	assert.Equal(t, interop.ResourceID(1<<63|42), loaded.Find(1))
	assert.Equal(t, interop.ResourceID(17), loaded.Find(2))
}
