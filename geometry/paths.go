package geometry

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/mogaika/geometry_source/resources"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/utils"
)

// difference between the FILETIME epoch (1601) and the unix epoch, in 100ns ticks
const fileTimeEpochOffset = 116444736000000000

// AssetWriteTimeUTC is the modification time of a file as FILETIME
// ticks, zero when the file cannot be read
func AssetWriteTimeUTC(fileName string) int64 {
	st, err := os.Stat(fileName)
	if err != nil {
		utils.LogError("[geometry] Failed to get last write time for %q: %v", fileName, err)
		return 0
	}
	return st.ModTime().UTC().UnixNano()/100 + fileTimeEpochOffset
}

func (s *Source) assetFile(a scene.AssetInfo) string {
	return filepath.Join(s.settings.AssetRoot, filepath.FromSlash(a.Path))
}

func (s *Source) assetWriteTime(a scene.AssetInfo) int64 {
	if !a.IsAsset() {
		return 0
	}
	return AssetWriteTimeUTC(s.assetFile(a))
}

func assetInfo(o scene.Object) (scene.AssetInfo, bool) {
	switch v := o.(type) {
	case *scene.Mesh:
		return v.Asset, true
	case *scene.Material:
		return v.Asset, true
	case *scene.Texture:
		return v.Asset, true
	case *scene.Font:
		return v.Asset, true
	case *scene.AnimationClip:
		return v.Asset, true
	}
	return scene.AssetInfo{}, false
}

// assetResourcePath derives the path of an asset from its file. Files can
// bundle several sub-objects, so everything but textures gets its name
// after the separator, and meshes their local id as well.
func (s *Source) assetResourcePath(o scene.Object) string {
	a, ok := assetInfo(o)
	if !ok || !a.IsAsset() {
		return ""
	}
	path := a.Path
	if _, isTexture := o.(*scene.Texture); !isTexture {
		path += resources.SubObjectSeparator + o.ObjectName()
	}
	if _, isMesh := o.(*scene.Mesh); isMesh {
		path += "_" + strconv.FormatInt(a.LocalID, 10)
	}
	return resources.Standardize(path, s.settings.PathRoot)
}

// resourcePath returns the remembered path of an object. Authoring always
// derives it again so changes to the rules reach every path.
func (s *Source) resourcePath(h scene.Handle, force bool) string {
	if s.authoring() {
		force = true
	}
	path := s.paths.ResourcePath(h)
	if !force && path != "" {
		return path
	}
	derived := s.assetResourcePath(s.scene.Get(h))
	if derived == "" {
		return path
	}
	s.paths.SetResourcePath(h, derived)
	return derived
}

// resourcePathOrFallback names scene-only objects after their owner
func (s *Source) resourcePathOrFallback(h scene.Handle, owner *scene.GameObject, force bool) string {
	if path := s.resourcePath(h, force); path != "" {
		return path
	}
	o := s.scene.Get(h)
	if o == nil || owner == nil {
		return ""
	}
	return s.paths.NonAssetResourcePath(h, owner.Path(), o.TypeName(), o.ObjectName(), s.settings.PathRoot)
}
