package geometry

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/utils"
)

type skeletonFile struct {
	Skeletons map[string]interop.ResourceID `yaml:"skeletons"`
}

func (s *Source) sessionFile(suffix string) string {
	name := s.scene.Name
	if name == "" {
		name = "scene"
	}
	return filepath.Join(s.settings.CachePath, name+"."+suffix+".yaml")
}

func (s *Source) saveSession() error {
	if err := s.ids.Save(s.sessionFile("identity")); err != nil {
		return err
	}
	if err := s.paths.Save(s.sessionFile("paths")); err != nil {
		return err
	}
	data, err := yaml.Marshal(&skeletonFile{Skeletons: s.skeletonUids})
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal skeleton ids")
	}
	fileName := s.sessionFile("skeletons")
	return errors.Wrapf(os.WriteFile(fileName, data, 0666), "Failed to write %q", fileName)
}

// SaveToDisk writes the store to the cache folder, with the ids of this
// session next to it
func (s *Source) SaveToDisk() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.settings.CachePath, 0777); err != nil {
		utils.LogError("[geometry] Failed to create cache folder %q: %v", s.settings.CachePath, err)
		return false
	}
	s.store.SetCachePath(s.settings.CachePath)
	if !s.store.SaveStore() {
		return false
	}
	if err := s.saveSession(); err != nil {
		utils.LogError("[geometry] Failed to save session: %v", err)
		return false
	}
	return true
}

// RestoreSession reads back the ids saved by SaveToDisk, dropping the
// ones whose objects are gone. Missing files are not an error.
func (s *Source) RestoreSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists := func(fileName string) bool {
		_, err := os.Stat(fileName)
		return err == nil
	}
	if fileName := s.sessionFile("identity"); exists(fileName) {
		if err := s.ids.Load(fileName); err != nil {
			return err
		}
		s.ids.Prune(s.scene.Alive)
	}
	if fileName := s.sessionFile("paths"); exists(fileName) {
		if err := s.paths.Load(fileName); err != nil {
			return err
		}
		s.paths.Prune(s.scene.Alive)
		s.paths.CheckForDuplicates()
	}
	if fileName := s.sessionFile("skeletons"); exists(fileName) {
		data, err := os.ReadFile(fileName)
		if err != nil {
			return errors.Wrapf(err, "Failed to read %q", fileName)
		}
		var f skeletonFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return errors.Wrapf(err, "Failed to parse %q", fileName)
		}
		for path, id := range f.Skeletons {
			s.skeletonUids[path] = id
		}
	}
	return nil
}

// LoadFromDisk reloads the store and reuses the ids of every asset that
// was not modified after it was stored
func (s *Source) LoadFromDisk() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids.Clear()
	s.store.SetCachePath(s.settings.CachePath)
	loaded, ok := s.store.LoadStore()
	if !ok {
		return false
	}
	s.addToProcessedResources(loaded.Meshes, func(o scene.Object) bool { _, ok := o.(*scene.Mesh); return ok })
	s.addToProcessedResources(loaded.Textures, func(o scene.Object) bool { _, ok := o.(*scene.Texture); return ok })
	s.addToProcessedResources(loaded.Materials, func(o scene.Object) bool { _, ok := o.(*scene.Material); return ok })
	utils.LogInfo("[geometry] Reused %d ids from %q", s.ids.Len(), s.settings.CachePath)
	return true
}

// findAsset looks for the scene object a stored resource came from,
// matching the kind and the derived resource path
func (s *Source) findAsset(path string, kind func(scene.Object) bool) (scene.Handle, bool) {
	if h, ok := s.paths.ResourceFromPath(path); ok && kind(s.scene.Get(h)) {
		return h, true
	}
	for _, h := range s.scene.Handles() {
		o := s.scene.Get(h)
		if kind(o) && s.assetResourcePath(o) == path {
			return h, true
		}
	}
	return scene.NilHandle, false
}

func (s *Source) addToProcessedResources(loaded []interop.LoadedResource, kind func(scene.Object) bool) {
	for _, lr := range loaded {
		path := s.store.UidToPath(lr.ID)
		if path == "" {
			path = lr.Name
		}
		h, ok := s.findAsset(path, kind)
		if !ok {
			utils.LogWarn("[geometry] Can't find asset %q", path)
			continue
		}
		a, _ := assetInfo(s.scene.Get(h))
		if lr.LastModified >= s.assetWriteTime(a) {
			s.ids.Add(h, lr.ID)
			s.paths.SetResourcePath(h, path)
		} else {
			utils.LogDebug("[geometry] Asset %q has been modified since it was stored", path)
		}
	}
}
