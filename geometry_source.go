package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/mogaika/geometry_source/config"
	"github.com/mogaika/geometry_source/geometry"
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/status"
	"github.com/mogaika/geometry_source/store"
	"github.com/mogaika/geometry_source/utils"
	"github.com/mogaika/geometry_source/web"
)

func main() {
	var settingsFile, sceneFile, mode, addr, runtimeMode, logLevel string
	var force int
	var verify, fresh bool
	flag.StringVar(&settingsFile, "config", "geometry_source.toml", "Path to settings file")
	flag.StringVar(&sceneFile, "scene", "", "Scene description to extract")
	flag.StringVar(&mode, "mode", "extract", "extract, serve, watch or dump")
	flag.StringVar(&addr, "i", "", "Address of server, overrides listen_addr")
	flag.StringVar(&runtimeMode, "runtime", "", "author or runtime, overrides mode of settings")
	flag.StringVar(&logLevel, "log", "", "Log level, overrides log_level")
	flag.IntVar(&force, "force", 0, "Force mask: 1 nodes, 2 hierarchies, 4 subresources, 16 textures, -1 everything")
	flag.BoolVar(&verify, "verify", false, "Validate meshes before storing them")
	flag.BoolVar(&fresh, "fresh", false, "Ignore the cache folder of a previous run")
	flag.Parse()

	settings, err := config.Load(settingsFile)
	if err != nil {
		utils.LogFatal("%v", err)
	}
	if addr != "" {
		settings.ListenAddr = addr
	}
	if runtimeMode != "" {
		settings.Mode = config.Mode(runtimeMode)
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	if verify {
		settings.Extraction.VerifyMeshes = true
	}
	if err := config.Set(settings); err != nil {
		utils.LogFatal("%v", err)
	}
	if err := utils.SetLogLevel(settings.LogLevel); err != nil {
		utils.LogFatal("Bad log level %q: %v", settings.LogLevel, err)
	}

	if sceneFile == "" {
		flag.PrintDefaults()
		return
	}
	load := func() (*scene.Scene, error) {
		return scene.Load(sceneFile, settings.AssetRoot)
	}
	sc, err := load()
	if err != nil {
		utils.LogFatal("%v", err)
	}

	gs := store.NewGeometryStore()
	src, err := geometry.NewSource(sc, settings, gs)
	if err != nil {
		utils.LogFatal("%v", err)
	}
	if !fresh {
		restore(src, settings)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	forceMask := interop.ForceMask(force)
	verifyMeshes := settings.Extraction.VerifyMeshes
	progress := func(done, total int, name string) bool {
		if done < total {
			utils.LogInfo("[cli] Texture %d/%d %s", done+1, total, name)
		}
		return ctx.Err() != nil
	}

	switch mode {
	case "extract":
		if !extract(src, forceMask, verifyMeshes, progress) {
			os.Exit(1)
		}
	case "dump":
		extract(src, forceMask, verifyMeshes, progress)
		utils.Dump(gs.Resources())
	case "serve":
		if err := web.NewServer(src, gs).ListenAndServe(settings.ListenAddr, "web"); err != nil {
			utils.LogFatal("%v", err)
		}
	case "watch":
		extract(src, forceMask, verifyMeshes, progress)
		w, err := geometry.NewWatcher(src, load, verifyMeshes, status.TextureProgress)
		if err != nil {
			utils.LogFatal("%v", err)
		}
		w.SceneFile = sceneFile
		if err := w.AddRecursive(settings.AssetRoot); err != nil {
			utils.LogFatal("%v", err)
		}
		if err := w.Add(filepath.Dir(sceneFile)); err != nil {
			utils.LogFatal("%v", err)
		}
		utils.LogInfo("[cli] Watching %q", settings.AssetRoot)
		if err := w.Run(ctx); err != nil {
			utils.LogFatal("%v", err)
		}
	default:
		utils.LogFatal("Unknown mode %q", mode)
	}
}

// restore reuses the ids of a previous run when its cache folder exists
func restore(src *geometry.Source, settings config.Settings) {
	if _, err := os.Stat(settings.CachePath); err != nil {
		return
	}
	if !src.LoadFromDisk() {
		utils.LogWarn("[cli] Cache %q could not be loaded, extracting from scratch", settings.CachePath)
		return
	}
	if err := src.RestoreSession(); err != nil {
		utils.LogWarn("[cli] %v", err)
	}
}

func extract(src *geometry.Source, forceMask interop.ForceMask, verify bool, progress func(done, total int, name string) bool) bool {
	ok := src.ExtractScene(forceMask, verify, progress)
	if !src.SaveToDisk() {
		ok = false
	}
	if !src.CheckForErrors() {
		utils.LogWarn("[cli] Store has problems, see errors above")
		ok = false
	}
	return ok
}
