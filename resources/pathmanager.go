package resources

import (
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/utils"
)

// PathManager remembers the resource path chosen for each object of a scene.
// A path belongs to at most one object.
type PathManager struct {
	paths map[scene.Handle]string
}

func NewPathManager() *PathManager {
	return &PathManager{paths: make(map[scene.Handle]string)}
}

func (pm *PathManager) sortedHandles() []scene.Handle {
	handles := make([]scene.Handle, 0, len(pm.paths))
	for h := range pm.paths {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// ResourcePath returns the stored path, re-standardizing legacy entries
func (pm *PathManager) ResourcePath(h scene.Handle) string {
	path, ok := pm.paths[h]
	if !ok {
		return ""
	}
	if p := Standardize(path, ""); p != path {
		pm.paths[h] = p
		path = p
	}
	return path
}

func (pm *PathManager) ResourceFromPath(path string) (scene.Handle, bool) {
	for _, h := range pm.sortedHandles() {
		if pm.paths[h] == path {
			return h, true
		}
	}
	return scene.NilHandle, false
}

// SetResourcePath refuses a path already owned by another object
func (pm *PathManager) SetResourcePath(h scene.Handle, path string) bool {
	for _, other := range pm.sortedHandles() {
		if other != h && pm.paths[other] == path {
			utils.LogError("[resources] Trying to add duplicate resource path %q for %v, but already present for %v", path, h, other)
			return false
		}
	}
	pm.paths[h] = Standardize(path, "")
	return true
}

func (pm *PathManager) Remove(h scene.Handle) {
	delete(pm.paths, h)
}

// CheckForDuplicates evicts later objects sharing a path with an earlier one
func (pm *PathManager) CheckForDuplicates() int {
	removed := 0
	handles := pm.sortedHandles()
	for i := 0; i < len(handles); i++ {
		pi, ok := pm.paths[handles[i]]
		if !ok {
			continue
		}
		for j := i + 1; j < len(handles); j++ {
			if pj, ok := pm.paths[handles[j]]; ok && pi == pj {
				delete(pm.paths, handles[j])
				removed++
				utils.LogWarn("[resources] Removed duplicate resource path %q for %v and %v", pj, handles[i], handles[j])
			}
		}
	}
	return removed
}

// NonAssetResourcePath builds the fallback path for objects without an
// asset file, adding a numeric suffix until it is unique
func (pm *PathManager) NonAssetResourcePath(h scene.Handle, ownerPath, typeName, name, pathRoot string) string {
	root := Standardize(ownerPath+"_"+typeName+"_"+name, pathRoot)
	path := root
	for n := 1; ; n++ {
		other, found := pm.ResourceFromPath(path)
		if !found || other == h {
			break
		}
		path = root + strconv.Itoa(n)
	}
	pm.SetResourcePath(h, path)
	return path
}

// Prune drops entries of objects that no longer exist
func (pm *PathManager) Prune(alive func(scene.Handle) bool) {
	for h := range pm.paths {
		if !alive(h) {
			delete(pm.paths, h)
		}
	}
}

func (pm *PathManager) Len() int {
	return len(pm.paths)
}

func (pm *PathManager) Clear() {
	pm.paths = make(map[scene.Handle]string)
}

type pathManagerFile struct {
	Keys   []scene.Handle `yaml:"keys"`
	Values []string       `yaml:"values"`
}

func (pm *PathManager) Save(fileName string) error {
	var f pathManagerFile
	for _, h := range pm.sortedHandles() {
		f.Keys = append(f.Keys, h)
		f.Values = append(f.Values, pm.paths[h])
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal resource paths")
	}
	return errors.Wrapf(os.WriteFile(fileName, data, 0666), "Failed to write %q", fileName)
}

func (pm *PathManager) Load(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return errors.Wrapf(err, "Failed to read %q", fileName)
	}
	var f pathManagerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return errors.Wrapf(err, "Failed to parse %q", fileName)
	}
	if len(f.Keys) != len(f.Values) {
		return errors.Errorf("Resource path file %q has %d keys and %d values", fileName, len(f.Keys), len(f.Values))
	}
	pm.Clear()
	for i, h := range f.Keys {
		if h.IsNil() {
			continue
		}
		pm.paths[h] = Standardize(f.Values[i], "")
	}
	return nil
}
