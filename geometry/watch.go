package geometry

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/txr"
	"github.com/mogaika/geometry_source/utils"
)

// editors write a file in several steps, changes are collected for this long
const watchSettleTime = 300 * time.Millisecond

// SceneLoader reloads the scene a source was made for
type SceneLoader func() (*scene.Scene, error)

// Watcher re-extracts the objects whose asset files change
type Watcher struct {
	source   *Source
	load     SceneLoader
	progress txr.ProgressFunc
	fs       *fsnotify.Watcher
	verify   bool
	// a change to this file re-extracts the whole scene
	SceneFile string
	// called after every batch of changes was stored
	OnUpdate func(changed []string)
}

func NewWatcher(source *Source, load SceneLoader, verify bool, progress txr.ProgressFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create file watcher")
	}
	return &Watcher{source: source, load: load, progress: progress, fs: fsw, verify: verify}, nil
}

// AddRecursive watches a folder and every folder under it
func (w *Watcher) AddRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fs.Add(path); err != nil {
				return errors.Wrapf(err, "Failed to watch %q", path)
			}
		}
		return nil
	})
}

func (w *Watcher) Add(fileName string) error {
	return errors.Wrapf(w.fs.Add(fileName), "Failed to watch %q", fileName)
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run blocks until the context is done
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	pending := make(map[string]bool)
	settle := time.NewTimer(watchSettleTime)
	settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if e.Op&fsnotify.Create != 0 {
				if st, err := os.Stat(e.Name); err == nil && st.IsDir() {
					if err := w.AddRecursive(e.Name); err != nil {
						utils.LogWarn("[watch] %v", err)
					}
					continue
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending[filepath.Clean(e.Name)] = true
				settle.Reset(watchSettleTime)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			utils.LogError("[watch] %v", err)
		case <-settle.C:
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			pending = make(map[string]bool)
			w.Update(changed)
		}
	}
}

// Update reloads the scene and re-extracts the objects using the changed
// files. Files nothing references are ignored.
func (w *Watcher) Update(changed []string) int {
	if w.sceneChanged(changed) {
		return w.reextract(changed)
	}
	owners := w.source.Owners(changed)
	if len(owners) == 0 {
		utils.LogDebug("[watch] %d changed files are not used by the scene", len(changed))
		return 0
	}
	if w.load != nil {
		sc, err := w.load()
		if err != nil {
			utils.LogError("[watch] Failed to reload scene: %v", err)
			return 0
		}
		w.source.SetScene(sc)
	}

	utils.LogInfo("[watch] Re-extracting %d nodes", len(owners))
	for _, h := range owners {
		w.source.AddNode(h, interop.FORCE_NODES|interop.FORCE_SUBRESOURCES, false, w.verify)
	}
	w.source.ExtractTextures(true, w.progress)
	w.source.SaveToDisk()
	if w.OnUpdate != nil {
		w.OnUpdate(changed)
	}
	return len(owners)
}

func (w *Watcher) sceneChanged(changed []string) bool {
	if w.SceneFile == "" {
		return false
	}
	sceneFile, err := filepath.Abs(w.SceneFile)
	if err != nil {
		return false
	}
	for _, name := range changed {
		if abs, err := filepath.Abs(name); err == nil && abs == sceneFile {
			return true
		}
	}
	return false
}

// reextract reloads the scene and forces every node again. Objects the
// new scene no longer has lose their nodes.
func (w *Watcher) reextract(changed []string) int {
	if w.load == nil {
		return 0
	}
	sc, err := w.load()
	if err != nil {
		utils.LogError("[watch] Failed to reload scene: %v", err)
		return 0
	}
	w.source.SetScene(sc)
	w.source.RemoveLostNodes()

	utils.LogInfo("[watch] Scene %q changed, re-extracting", sc.Name)
	w.source.ExtractScene(interop.FORCE_NODES_AND_HIERARCHIES, w.verify, w.progress)
	w.source.SaveToDisk()
	if w.OnUpdate != nil {
		w.OnUpdate(changed)
	}
	return len(sc.Roots)
}

// assetHandles lists the assets a game object draws from
func assetHandles(sc *scene.Scene, g *scene.GameObject) []scene.Handle {
	var hs []scene.Handle
	addMaterials := func(materials []scene.Handle) {
		for _, mh := range materials {
			hs = append(hs, mh)
			if m := sc.Material(mh); m != nil {
				hs = append(hs, m.Textures()...)
			}
		}
	}
	if g.MeshFilter != nil {
		hs = append(hs, g.MeshFilter.Mesh)
	}
	if g.MeshRenderer != nil {
		addMaterials(g.MeshRenderer.Materials)
	}
	if g.SkinnedMeshRenderer != nil {
		hs = append(hs, g.SkinnedMeshRenderer.Mesh)
		addMaterials(g.SkinnedMeshRenderer.Materials)
	}
	if g.TextCanvas != nil {
		hs = append(hs, g.TextCanvas.Font)
	}
	return hs
}

// Owners lists the game objects using any of the given files
func (s *Source) Owners(fileNames []string) []scene.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := make(map[string]bool, len(fileNames))
	for _, name := range fileNames {
		if abs, err := filepath.Abs(name); err == nil {
			changed[abs] = true
		}
	}
	uses := func(h scene.Handle) bool {
		a, ok := assetInfo(s.scene.Get(h))
		if !ok || !a.IsAsset() {
			return false
		}
		abs, err := filepath.Abs(s.assetFile(a))
		return err == nil && changed[abs]
	}

	var owners []scene.Handle
	s.scene.Walk(func(g *scene.GameObject) bool {
		for _, h := range assetHandles(s.scene, g) {
			if uses(h) {
				owners = append(owners, g.Handle())
				break
			}
		}
		return true
	})
	return owners
}
