// Package txr extracts texture pixels into stored texture records.
// Textures are queued while the scene is walked and read back in one pass.
package txr

import (
	"github.com/pkg/errors"

	"github.com/mogaika/geometry_source/config"
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/utils"
)

type Entry struct {
	ID           interop.ResourceID
	Path         string
	LastModified int64
	Source       *scene.Texture
	// name, path and layout decided when the texture was added
	Template   *interop.Texture
	Conversion interop.TextureConversion
	Owner      scene.Handle
}

type Store interface {
	StoreTexture(id interop.ResourceID, path string, lastModified int64, tex *interop.Texture, genMips, highQuality, force bool) bool
}

// ProgressFunc is told about every texture before it is extracted,
// returning true cancels the rest of the flush
type ProgressFunc func(done, total int, name string) (cancel bool)

type Queue struct {
	maximumTextureSize int
	colorSpace         config.ColorSpace
	cachePath          string
	pathRoot           string
	compressor         *Compressor

	entries []*Entry
}

func NewQueue(s config.Settings) (*Queue, error) {
	compressor, err := NewCompressor(s.Textures.Compressor)
	if err != nil {
		return nil, err
	}
	return &Queue{
		maximumTextureSize: s.Textures.MaximumTextureSize,
		colorSpace:         s.Extraction.ColorSpace,
		cachePath:          s.CachePath,
		pathRoot:           s.PathRoot,
		compressor:         compressor,
	}, nil
}

func (q *Queue) Enqueue(e *Entry) {
	q.entries = append(q.entries, e)
}

func (q *Queue) Len() int {
	return len(q.entries)
}

func (q *Queue) Entries() []*Entry {
	return q.entries
}

func (q *Queue) Clear() {
	q.entries = nil
}

// Extract runs the format rules and kernels over every layer and mip of an
// entry and returns the finished record
func (q *Queue) Extract(e *Entry) (*interop.Texture, bool, error) {
	src := e.Source
	if src == nil {
		return nil, false, errors.Errorf("Texture %d has no source", e.ID)
	}
	plan := NewPlan(src, q.maximumTextureSize)

	tex := *e.Template
	tex.Width = uint32(plan.Width)
	tex.Height = uint32(plan.Height)
	tex.MipCount = uint32(plan.MipCount)
	tex.Format = plan.Format
	tex.Compression = plan.Compression
	tex.Compressed = false
	tex.ValueScale = 1

	layers := max(1, int(tex.ArrayCount))
	if len(src.Images) < layers {
		return nil, false, errors.Errorf("Texture %q has %d images, %d needed", src.Name, len(src.Images), layers)
	}

	utils.LogDebug("[txr] %q %dx%d mips %d kernel %s format %v",
		tex.Name, plan.Width, plan.Height, plan.MipCount, KernelName(src, e.Conversion, q.colorSpace), plan.Format)

	k := kernelFor(src, e.Conversion, q.colorSpace, plan.Format)
	images := make([][]byte, 0, layers*plan.MipCount)
	for layer := 0; layer < layers; layer++ {
		img := src.Images[layer]
		if img == nil {
			return nil, false, errors.Errorf("Texture %q layer %d has no pixels", src.Name, layer)
		}
		for mip := 0; mip < plan.MipCount; mip++ {
			w, h := MipSize(plan.Width, plan.Height, mip)
			images = append(images, Readback(img, k, plan.Format, w, h))
		}
	}

	var err error
	if tex.Data, err = interop.PackSubresources(images); err != nil {
		return nil, false, errors.Wrapf(err, "Texture %q", src.Name)
	}
	return &tex, plan.HighQuality, nil
}

// Flush extracts and stores every queued texture. Stores already made are
// kept when the progress callback cancels; the rest stays queued.
func (q *Queue) Flush(store Store, force bool, progress ProgressFunc) bool {
	total := len(q.entries)
	var compressed []*interop.Texture
	var compressedAssets []string

	for i, e := range q.entries {
		name := e.Path
		if e.Template != nil {
			name = e.Template.Name
		}
		if progress != nil && progress(i, total, name) {
			utils.LogInfo("[txr] Texture extraction cancelled after %d of %d", i, total)
			q.entries = q.entries[i:]
			q.writeCompressed(compressed, compressedAssets)
			return false
		}

		tex, hq, err := q.Extract(e)
		if err != nil {
			utils.LogError("[txr] Failed to extract %q: %v", e.Path, err)
			continue
		}
		if !store.StoreTexture(e.ID, e.Path, e.LastModified, tex, false, hq, force) {
			utils.LogError("[txr] Failed to store texture %q", e.Path)
			continue
		}
		if tex.Compression != interop.TextureUncompressed {
			compressed = append(compressed, tex)
			compressedAssets = append(compressedAssets, e.Source.Asset.Path)
		}
	}
	if progress != nil {
		progress(total, total, "")
	}
	q.entries = nil
	q.writeCompressed(compressed, compressedAssets)
	return true
}

func (q *Queue) writeCompressed(textures []*interop.Texture, assets []string) {
	for i, tex := range textures {
		if assets[i] == "" {
			continue
		}
		pngFile := CompressedFilePath(q.cachePath, q.pathRoot, assets[i], interop.TextureCompressionPNG)
		if err := WritePNG(pngFile, tex); err != nil {
			utils.LogError("[txr] %v", err)
			continue
		}
		if tex.Compression != interop.TextureCompressionKTX || q.compressor == nil {
			continue
		}
		if err := q.compressor.Compress(pngFile); err != nil {
			utils.LogError("[txr] %v", err)
		}
	}
}
