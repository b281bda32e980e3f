package config

import (
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

type Mode string

const (
	// full extraction and encoding
	ModeAuthor Mode = "author"
	// read-only consumer of a previously built cache
	ModeRuntime Mode = "runtime"
)

type ColorSpace string

const (
	ColorSpaceLinear ColorSpace = "linear"
	ColorSpaceGamma  ColorSpace = "gamma"
)

type ExtractionSettings struct {
	ColorSpace                    ColorSpace `toml:"color_space"`
	TreatTransparentAsDoubleSided bool       `toml:"treat_transparent_as_double_sided"`
	VerifyMeshes                  bool       `toml:"verify_meshes"`
	// scene roots with a lower streamable priority are not extracted
	MinimumNodePriority           int32      `toml:"minimum_node_priority"`
}

type TextureSettings struct {
	MaximumTextureSize int `toml:"maximum_texture_size"`
	QualityLevel       int `toml:"quality_level"`
	CompressionLevel   int `toml:"compression_level"`
	// command line of the external compressor, empty disables compression
	Compressor string `toml:"compressor"`
}

type Settings struct {
	Mode       Mode   `toml:"mode"`
	AssetRoot  string `toml:"asset_root"`
	PathRoot   string `toml:"path_root"`
	CachePath  string `toml:"cache_path"`
	HttpRoot   string `toml:"http_root"`
	ListenAddr string `toml:"listen_addr"`
	Encoding   string `toml:"encoding"`
	LogLevel   string `toml:"log_level"`

	Extraction ExtractionSettings `toml:"extraction"`
	Textures   TextureSettings    `toml:"textures"`
}

func Default() Settings {
	return Settings{
		Mode:       ModeAuthor,
		AssetRoot:  ".",
		PathRoot:   "Assets/",
		CachePath:  "cache",
		HttpRoot:   "http://127.0.0.1:8000",
		ListenAddr: ":8000",
		Encoding:   "Windows 1252",
		LogLevel:   "info",
		Extraction: ExtractionSettings{
			ColorSpace:                    ColorSpaceLinear,
			TreatTransparentAsDoubleSided: true,
		},
		Textures: TextureSettings{
			MaximumTextureSize: 1024,
			QualityLevel:       1,
			CompressionLevel:   1,
		},
	}
}

func (s *Settings) Validate() error {
	switch s.Mode {
	case ModeAuthor, ModeRuntime:
	default:
		return errors.Errorf("Unknown mode %q", s.Mode)
	}
	switch s.Extraction.ColorSpace {
	case ColorSpaceLinear, ColorSpaceGamma:
	default:
		return errors.Errorf("Unknown color space %q", s.Extraction.ColorSpace)
	}
	if s.Textures.MaximumTextureSize <= 0 {
		return errors.Errorf("Maximum texture size must be positive, got %d", s.Textures.MaximumTextureSize)
	}
	return nil
}

// Load reads settings from a toml file on top of the defaults.
// Missing file is not an error.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, errors.Wrapf(err, "Failed to read config %q", path)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "Failed to parse config %q", path)
	}
	if err := s.Validate(); err != nil {
		return s, errors.Wrapf(err, "Invalid config %q", path)
	}
	return s, nil
}

func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0666), "Failed to write config %q", path)
}

var currentLock sync.RWMutex
var current = Default()

func Get() Settings {
	currentLock.RLock()
	defer currentLock.RUnlock()
	return current
}

// Set installs settings process-wide, including the code page of scene
// files that are not utf-8
func Set(s Settings) error {
	if s.Encoding != "" {
		if err := SetEncoding(s.Encoding); err != nil {
			return err
		}
	}
	currentLock.Lock()
	defer currentLock.Unlock()
	current = s
	return nil
}
