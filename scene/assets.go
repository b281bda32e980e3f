package scene

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// AssetInfo locates the file an asset came from.
// Empty Path means the object lives only in the scene.
type AssetInfo struct {
	Path    string
	LocalID int64
}

func (a AssetInfo) IsAsset() bool {
	return a.Path != ""
}

type BoneWeight struct {
	Joints  [4]int32
	Weights [4]float32
}

type SubMesh struct {
	IndexStart uint32
	IndexCount uint32
}

type Mesh struct {
	Name     string
	Asset    AssetInfo
	Readable bool

	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Tangents  []mgl32.Vec4
	UV0       []mgl32.Vec2
	UV2       []mgl32.Vec2

	BoneWeights []BoneWeight
	Bindposes   []mgl32.Mat4

	// source index width is 16 bit
	Index16   bool
	Indices   []uint32
	SubMeshes []SubMesh
}

func (m *Mesh) ObjectName() string { return m.Name }
func (m *Mesh) TypeName() string   { return "Mesh" }

type AnimationClip struct {
	Name  string
	Asset AssetInfo
}

func (c *AnimationClip) ObjectName() string { return c.Name }
func (c *AnimationClip) TypeName() string   { return "AnimationClip" }

// Font is a bitmap font description (BMFont text or binary .fnt)
type Font struct {
	Name  string
	Asset AssetInfo
	Size  int32
	Data  []byte
}

func (f *Font) ObjectName() string { return f.Name }
func (f *Font) TypeName() string   { return "Font" }

type TextureKind uint8

const (
	Texture2D TextureKind = iota
	Texture2DArray
	Texture3D
	TextureCube
	TextureRender
	TextureUnsupported
)

// SourceFormat is the storage format of the texture in the authoring tool
type SourceFormat string

const (
	FormatRGBA32    SourceFormat = "RGBA32"
	FormatRGB24     SourceFormat = "RGB24"
	FormatR8        SourceFormat = "R8"
	FormatDXT1      SourceFormat = "DXT1"
	FormatDXT5      SourceFormat = "DXT5"
	FormatBC6H      SourceFormat = "BC6H"
	FormatRGBAHalf  SourceFormat = "RGBAHalf"
	FormatRGBAFloat SourceFormat = "RGBAFloat"
)

type Texture struct {
	Name  string
	Asset AssetInfo

	Kind     TextureKind
	Width    int
	Height   int
	Depth    int
	MipCount int
	Format   SourceFormat

	NormalMap    bool
	CompressedHQ bool
	SRGB         bool
	// render texture with cube dimension
	RenderCube bool

	// one image per array slice, depth slice or cube face
	Images []image.Image
}

func (t *Texture) ObjectName() string { return t.Name }
func (t *Texture) TypeName() string   { return "Texture" }

// Layers is how many images the texture should carry
func (t *Texture) Layers() int {
	switch t.Kind {
	case TextureCube:
		return 6
	case TextureRender:
		if t.RenderCube {
			return 6
		}
		return 1
	case Texture2DArray, Texture3D:
		if t.Depth > 0 {
			return t.Depth
		}
	}
	return 1
}
