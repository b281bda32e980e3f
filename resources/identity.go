package resources

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/utils"
)

// PathLoader resolves a resource path to the id of a stored resource,
// loading it on demand. Zero when the store knows nothing about it.
type PathLoader interface {
	EnsurePathResourceIsLoaded(path string) interop.ResourceID
}

// IdentityTable maps scene objects to resource ids for one session
type IdentityTable struct {
	ids map[scene.Handle]interop.ResourceID
}

func NewIdentityTable() *IdentityTable {
	return &IdentityTable{ids: make(map[scene.Handle]interop.ResourceID)}
}

func (t *IdentityTable) sortedHandles() []scene.Handle {
	handles := make([]scene.Handle, 0, len(t.ids))
	for h := range t.ids {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// Add fails for the nil handle or a zero id
func (t *IdentityTable) Add(h scene.Handle, id interop.ResourceID) bool {
	if h.IsNil() {
		utils.LogError("[resources] Attempted to add a nil object with id %#x", id)
		return false
	}
	if id == 0 {
		utils.LogError("[resources] Attempted to add object %v with an id of zero", h)
		return false
	}
	t.ids[h] = id
	return true
}

func (t *IdentityTable) Find(h scene.Handle) interop.ResourceID {
	return t.ids[h]
}

// FindOrAdd falls back to the store when the object is not yet known
// this session, using the object's resource path
func (t *IdentityTable) FindOrAdd(h scene.Handle, path string, loader PathLoader) interop.ResourceID {
	if id, ok := t.ids[h]; ok {
		return id
	}
	if path == "" || h.IsNil() {
		return 0
	}
	id := loader.EnsurePathResourceIsLoaded(path)
	if id != 0 {
		t.ids[h] = id
	}
	return id
}

// Handle is the reverse lookup, lowest handle wins
func (t *IdentityTable) Handle(id interop.ResourceID) (scene.Handle, bool) {
	for _, h := range t.sortedHandles() {
		if t.ids[h] == id {
			return h, true
		}
	}
	return scene.NilHandle, false
}

func (t *IdentityTable) Remove(h scene.Handle) {
	delete(t.ids, h)
}

func (t *IdentityTable) Len() int {
	return len(t.ids)
}

func (t *IdentityTable) Clear() {
	t.ids = make(map[scene.Handle]interop.ResourceID)
}

// Range visits entries in handle order until fn returns false
func (t *IdentityTable) Range(fn func(h scene.Handle, id interop.ResourceID) bool) {
	for _, h := range t.sortedHandles() {
		if !fn(h, t.ids[h]) {
			return
		}
	}
}

// Prune drops entries of objects that no longer exist
func (t *IdentityTable) Prune(alive func(scene.Handle) bool) []interop.ResourceID {
	var removed []interop.ResourceID
	for _, h := range t.sortedHandles() {
		if !alive(h) {
			removed = append(removed, t.ids[h])
			delete(t.ids, h)
		}
	}
	return removed
}

// EliminateDuplicates keeps the first object of each id, in handle order
func (t *IdentityTable) EliminateDuplicates() int {
	removed := 0
	handles := t.sortedHandles()
	for i := 0; i < len(handles); i++ {
		idi, ok := t.ids[handles[i]]
		if !ok {
			continue
		}
		for j := i + 1; j < len(handles); j++ {
			if idj, ok := t.ids[handles[j]]; ok && idi == idj {
				utils.LogWarn("[resources] Objects %v and %v share id %#x, removing %v", handles[i], handles[j], idi, handles[j])
				delete(t.ids, handles[j])
				removed++
			}
		}
	}
	return removed
}

// Export flattens the table into parallel arrays after removing duplicates
func (t *IdentityTable) Export() ([]scene.Handle, []interop.ResourceID) {
	t.EliminateDuplicates()
	handles := t.sortedHandles()
	values := make([]interop.ResourceID, len(handles))
	for i, h := range handles {
		values[i] = t.ids[h]
	}
	return handles, values
}

func (t *IdentityTable) Import(keys []scene.Handle, values []interop.ResourceID) error {
	if len(keys) != len(values) {
		return errors.Errorf("Identity table has %d keys and %d values", len(keys), len(values))
	}
	t.Clear()
	for i, h := range keys {
		if h.IsNil() || values[i] == 0 {
			continue
		}
		t.ids[h] = values[i]
	}
	t.EliminateDuplicates()
	return nil
}

type identityFile struct {
	Keys   []scene.Handle       `yaml:"keys"`
	Values []interop.ResourceID `yaml:"values"`
}

func (t *IdentityTable) Save(fileName string) error {
	var f identityFile
	f.Keys, f.Values = t.Export()
	data, err := yaml.Marshal(&f)
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal identity table")
	}
	return errors.Wrapf(os.WriteFile(fileName, data, 0666), "Failed to write %q", fileName)
}

func (t *IdentityTable) Load(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return errors.Wrapf(err, "Failed to read %q", fileName)
	}
	var f identityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return errors.Wrapf(err, "Failed to parse %q", fileName)
	}
	return t.Import(f.Keys, f.Values)
}
