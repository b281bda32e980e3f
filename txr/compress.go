package txr

import (
	"image/png"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/utils"
)

// CompressedFilePath is where the compressed form of an asset lives:
// the asset path below the cache folder with the compression's extension
func CompressedFilePath(cachePath, pathRoot, assetPath string, compression interop.TextureCompression) string {
	rel := strings.TrimPrefix(filepath.ToSlash(assetPath), pathRoot)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	ext := ".png"
	if compression == interop.TextureCompressionKTX {
		ext = ".ktx"
	}
	return path.Join(filepath.ToSlash(cachePath), rel+ext)
}

// WritePNG stores the first image of the top mip, input for the compressor
func WritePNG(fileName string, t *interop.Texture) error {
	img, err := Image(t, 0)
	if err != nil {
		return errors.Wrapf(err, "Texture %q", t.Name)
	}
	if err := os.MkdirAll(filepath.Dir(fileName), 0777); err != nil {
		return errors.Wrapf(err, "Failed to create folder for %q", fileName)
	}
	f, err := os.Create(fileName)
	if err != nil {
		return errors.Wrapf(err, "Failed to create %q", fileName)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return errors.Wrapf(err, "Failed to encode %q", fileName)
	}
	return nil
}

// Compressor runs the external basis encoder
type Compressor struct {
	command []string
}

// NewCompressor parses a command line, empty means no compressor
func NewCompressor(commandLine string) (*Compressor, error) {
	args, err := shellwords.Parse(commandLine)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to parse compressor command %q", commandLine)
	}
	if len(args) == 0 {
		return nil, nil
	}
	return &Compressor{command: args}, nil
}

func (c *Compressor) Args(pngFile string) []string {
	outputDir := filepath.Dir(pngFile)
	args := append([]string{}, c.command[1:]...)
	return append(args, "-uastc", "-uastc_rdo_m", "-no_multithreading", "-debug", "-stats",
		"-output_path", outputDir, pngFile)
}

// Compress blocks until the compressor exits. Its output is kept next to
// the png when it fails.
func (c *Compressor) Compress(pngFile string) error {
	cmd := exec.Command(c.command[0], c.Args(pngFile)...)
	cmd.Dir = filepath.Dir(pngFile)
	utils.LogDebug("[txr] Running %v", cmd.Args)

	output, err := cmd.Output()
	if err != nil {
		if writeErr := os.WriteFile(pngFile+".out", output, 0666); writeErr != nil {
			utils.LogError("[txr] Failed to save compressor output: %v", writeErr)
		}
		return errors.Wrapf(err, "Compressor failed on %q", pngFile)
	}
	return nil
}
