package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/utils"
)

// StoreVersion is written into every index. Loading accepts any index
// with the same major version.
const StoreVersion = "1.2.0"

const indexFileName = "index.yaml"

var storeCompatibility = mustConstraint("^1.0.0")

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

type indexEntry struct {
	ID           uint64 `yaml:"id"`
	Kind         Kind   `yaml:"kind"`
	Path         string `yaml:"path"`
	Name         string `yaml:"name"`
	LastModified int64  `yaml:"last_modified"`
	HighQuality  bool   `yaml:"high_quality,omitempty"`
	// payload file relative to the cache folder
	File string `yaml:"file,omitempty"`
	// mesh payload per axes standard
	Meshes map[int32]string `yaml:"meshes,omitempty"`
}

func (e indexEntry) meta() Meta {
	return Meta{ID: e.ID, Kind: e.Kind, Path: e.Path, Name: e.Name, LastModified: e.LastModified}
}

func newIndexEntry(m Meta) indexEntry {
	return indexEntry{ID: m.ID, Kind: m.Kind, Path: m.Path, Name: m.Name, LastModified: m.LastModified}
}

type storeIndex struct {
	Version   string       `yaml:"version"`
	NextUid   uint64       `yaml:"next_uid"`
	Resources []indexEntry `yaml:"resources"`
}

func payloadName(kind Kind, id interop.ResourceID, suffix string) string {
	return filepath.ToSlash(filepath.Join(string(kind), fmt.Sprintf("%016x%s.bin", id, suffix)))
}

func sortIndex(entries []indexEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind < entries[j].Kind
		}
		return entries[i].ID < entries[j].ID
	})
}

func (gs *GeometryStore) writePayload(name string, data []byte) error {
	fileName := filepath.Join(gs.cachePath, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(fileName), 0777); err != nil {
		return errors.Wrapf(err, "Failed to create folder for %q", fileName)
	}
	if err := os.WriteFile(fileName, data, 0666); err != nil {
		return errors.Wrapf(err, "Failed to write %q", fileName)
	}
	return nil
}

func (gs *GeometryStore) readPayload(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(gs.cachePath, filepath.FromSlash(name)))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read payload %q", name)
	}
	return data, nil
}

func (gs *GeometryStore) save() error {
	if gs.cachePath == "" {
		return errors.New("Cache path is not set")
	}
	idx := storeIndex{Version: StoreVersion, NextUid: gs.nextUid}

	for id, e := range gs.meshes {
		ie := newIndexEntry(e.Meta)
		ie.Meshes = make(map[int32]string)
		for axes, m := range e.byAxes {
			name := payloadName(KindMesh, id, fmt.Sprintf("_%d", int32(axes)))
			if err := gs.writePayload(name, interop.EncodeMesh(m)); err != nil {
				return err
			}
			ie.Meshes[int32(axes)] = name
		}
		idx.Resources = append(idx.Resources, ie)
	}

	write := func(m Meta, data []byte, hq bool) error {
		ie := newIndexEntry(m)
		ie.HighQuality = hq
		ie.File = payloadName(m.Kind, m.ID, "")
		if err := gs.writePayload(ie.File, data); err != nil {
			return err
		}
		idx.Resources = append(idx.Resources, ie)
		return nil
	}
	for _, e := range gs.materials {
		if err := write(e.Meta, interop.EncodeMaterial(e.material), false); err != nil {
			return err
		}
	}
	for _, e := range gs.textures {
		if err := write(e.Meta, interop.EncodeTexture(e.tex), e.highQuality); err != nil {
			return err
		}
	}
	for _, e := range gs.skeletons {
		if err := write(e.Meta, interop.EncodeSkeleton(e.skeleton), false); err != nil {
			return err
		}
	}
	for _, e := range gs.fonts {
		if err := write(e.Meta, interop.EncodeFontAtlas(e.atlas), false); err != nil {
			return err
		}
	}
	// still on disk from an earlier load
	for _, ie := range gs.unloaded {
		idx.Resources = append(idx.Resources, ie)
	}
	sortIndex(idx.Resources)

	data, err := yaml.Marshal(&idx)
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal store index")
	}
	return gs.writePayload(indexFileName, data)
}

func (gs *GeometryStore) SaveStore() bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if err := gs.save(); err != nil {
		utils.LogError("[store] Failed to save store: %v", err)
		return false
	}
	utils.LogInfo("[store] Saved to %q", gs.cachePath)
	return true
}

func readIndex(cachePath string) (*storeIndex, error) {
	fileName := filepath.Join(cachePath, indexFileName)
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read store index")
	}
	var idx storeIndex
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse %q", fileName)
	}
	version, err := semver.NewVersion(idx.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "Store %q has a bad version", fileName)
	}
	if !storeCompatibility.Check(version) {
		return nil, errors.Errorf("Store %q version %v is not compatible with %v", fileName, version, StoreVersion)
	}
	return &idx, nil
}

// LoadStore reads the index of the cache folder. Payloads stay on disk
// until EnsureResourceIsLoaded asks for them.
func (gs *GeometryStore) LoadStore() (Loaded, bool) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	var loaded Loaded
	idx, err := readIndex(gs.cachePath)
	if err != nil {
		utils.LogError("[store] %v", err)
		return loaded, false
	}

	if idx.NextUid > gs.nextUid {
		gs.nextUid = idx.NextUid
	}
	for _, ie := range idx.Resources {
		if ie.ID == 0 {
			utils.LogWarn("[store] Skipping %s %q with an id of zero", ie.Kind, ie.Path)
			continue
		}
		if !gs.loaded(ie.ID) {
			gs.unloaded[ie.ID] = ie
		}
		gs.rememberPath(ie.ID, ie.Path)

		lr := interop.LoadedResource{ID: ie.ID, Name: ie.Path, LastModified: ie.LastModified}
		switch ie.Kind {
		case KindMesh:
			loaded.Meshes = append(loaded.Meshes, lr)
		case KindTexture:
			loaded.Textures = append(loaded.Textures, lr)
		case KindMaterial:
			loaded.Materials = append(loaded.Materials, lr)
		}
	}
	utils.LogInfo("[store] Loaded index %v from %q: %d meshes, %d textures, %d materials",
		idx.Version, gs.cachePath, len(loaded.Meshes), len(loaded.Textures), len(loaded.Materials))
	return loaded, true
}

func (gs *GeometryStore) loaded(id interop.ResourceID) bool {
	if _, ok := gs.meshes[id]; ok {
		return true
	}
	if _, ok := gs.materials[id]; ok {
		return true
	}
	if _, ok := gs.textures[id]; ok {
		return true
	}
	if _, ok := gs.skeletons[id]; ok {
		return true
	}
	if _, ok := gs.fonts[id]; ok {
		return true
	}
	if _, ok := gs.canvases[id]; ok {
		return true
	}
	_, ok := gs.nodes[id]
	return ok
}

func (gs *GeometryStore) hydrate(ie indexEntry) error {
	if ie.Kind == KindMesh {
		e := &meshEntry{Meta: ie.meta(), byAxes: make(map[interop.AxesStandard]*interop.Mesh)}
		for axes, name := range ie.Meshes {
			data, err := gs.readPayload(name)
			if err != nil {
				return err
			}
			m, err := interop.DecodeMesh(data)
			if err != nil {
				return errors.Wrapf(err, "Mesh %q", ie.Path)
			}
			e.byAxes[interop.AxesStandard(axes)] = m
		}
		gs.meshes[ie.ID] = e
		return nil
	}

	data, err := gs.readPayload(ie.File)
	if err != nil {
		return err
	}
	switch ie.Kind {
	case KindMaterial:
		m, err := interop.DecodeMaterial(data)
		if err != nil {
			return errors.Wrapf(err, "Material %q", ie.Path)
		}
		gs.materials[ie.ID] = &materialEntry{Meta: ie.meta(), material: m}
	case KindTexture:
		t, err := interop.DecodeTexture(data)
		if err != nil {
			return errors.Wrapf(err, "Texture %q", ie.Path)
		}
		gs.textures[ie.ID] = &textureEntry{Meta: ie.meta(), tex: t, highQuality: ie.HighQuality}
	case KindSkeleton:
		s, err := interop.DecodeSkeleton(data)
		if err != nil {
			return errors.Wrapf(err, "Skeleton %q", ie.Path)
		}
		gs.skeletons[ie.ID] = &skeletonEntry{Meta: ie.meta(), skeleton: s}
	case KindFont:
		f, err := interop.DecodeFontAtlas(data)
		if err != nil {
			return errors.Wrapf(err, "Font %q", ie.Path)
		}
		gs.fonts[ie.ID] = &fontEntry{Meta: ie.meta(), atlas: f}
	default:
		return errors.Errorf("Unknown resource kind %q", ie.Kind)
	}
	return nil
}

// EnsureResourceIsLoaded hydrates a resource from the cache folder
func (gs *GeometryStore) EnsureResourceIsLoaded(id interop.ResourceID) bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.loaded(id) {
		return true
	}
	ie, ok := gs.unloaded[id]
	if !ok {
		return false
	}
	if err := gs.hydrate(ie); err != nil {
		utils.LogError("[store] Failed to load %s %d: %v", ie.Kind, id, err)
		return false
	}
	delete(gs.unloaded, id)
	return true
}

func (gs *GeometryStore) EnsurePathResourceIsLoaded(path string) interop.ResourceID {
	id := gs.PathToUid(path)
	if id == 0 || !gs.EnsureResourceIsLoaded(id) {
		return 0
	}
	return id
}
