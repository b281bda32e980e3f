// Package interop holds every record that crosses the store boundary,
// its packed layout and binary codec.
package interop

import "fmt"

// ResourceID identifies a resource in the store. Zero means none.
type ResourceID = uint64

type ForceMask int32

const (
	FORCE_NOTHING      ForceMask = 0
	FORCE_NODES        ForceMask = 1
	FORCE_HIERARCHIES  ForceMask = 2
	FORCE_SUBRESOURCES ForceMask = 4
	FORCE_TEXTURES     ForceMask = 16
	FORCE_EVERYTHING   ForceMask = -1

	FORCE_NODES_AND_HIERARCHIES              = FORCE_NODES | FORCE_HIERARCHIES
	FORCE_NODES_HIERARCHIES_AND_SUBRESOURCES = FORCE_NODES | FORCE_HIERARCHIES | FORCE_SUBRESOURCES | FORCE_TEXTURES
)

func (m ForceMask) Has(flag ForceMask) bool {
	return m&flag != 0
}

type TextureConversion int32

const (
	CONVERT_NOTHING TextureConversion = iota
	CONVERT_TO_METALLICROUGHNESS_BLUEGREEN
)

func (c TextureConversion) String() string {
	switch c {
	case CONVERT_NOTHING:
		return "CONVERT_NOTHING"
	case CONVERT_TO_METALLICROUGHNESS_BLUEGREEN:
		return "CONVERT_TO_METALLICROUGHNESS_BLUEGREEN"
	}
	return fmt.Sprintf("TextureConversion(%d)", int32(c))
}

type AxesStandard int32

const (
	AxesNotInitialised AxesStandard = 0
	AxesRightHanded    AxesStandard = 1
	AxesLeftHanded     AxesStandard = 2
	AxesYVertical      AxesStandard = 4
	AxesEngineering    AxesStandard = 8 | AxesRightHanded
	AxesGl             AxesStandard = 16 | AxesRightHanded
	AxesUnreal         AxesStandard = 32 | AxesLeftHanded
	AxesUnity          AxesStandard = 64 | AxesLeftHanded | AxesYVertical
)

func (a AxesStandard) String() string {
	switch a {
	case AxesNotInitialised:
		return "NotInitialised"
	case AxesEngineering:
		return "EngineeringStyle"
	case AxesGl:
		return "GlStyle"
	case AxesUnreal:
		return "UnrealStyle"
	case AxesUnity:
		return "UnityStyle"
	}
	return fmt.Sprintf("AxesStandard(%d)", int32(a))
}

type NodeDataType uint8

const (
	NodeDataInvalid NodeDataType = iota
	NodeDataNone
	NodeDataMesh
	NodeDataLight
	NodeDataTextCanvas
	NodeDataSubScene
	NodeDataSkeleton
	NodeDataLink
)

var nodeDataTypeNames = [...]string{"Invalid", "None", "Mesh", "Light", "TextCanvas", "SubScene", "Skeleton", "Link"}

func (t NodeDataType) String() string {
	if int(t) < len(nodeDataTypeNames) {
		return nodeDataTypeNames[t]
	}
	return fmt.Sprintf("NodeDataType(%d)", uint8(t))
}

type LightType uint8

const (
	LightSpot LightType = iota
	LightDirectional
	LightPoint
	LightArea
	LightDisc
)

type AccessorDataType uint8

const (
	SCALAR AccessorDataType = iota + 1
	VEC2
	VEC3
	VEC4
	MAT4
)

// Components reports how many scalar components one element has
func (t AccessorDataType) Components() int {
	switch t {
	case SCALAR:
		return 1
	case VEC2:
		return 2
	case VEC3:
		return 3
	case VEC4:
		return 4
	case MAT4:
		return 16
	}
	return 0
}

type ComponentType uint8

const (
	FLOAT ComponentType = iota
	DOUBLE
	HALF
	UINT
	USHORT
	UBYTE
	INT
	SHORT
	BYTE
)

func (t ComponentType) Size() int {
	switch t {
	case DOUBLE:
		return 8
	case FLOAT, UINT, INT:
		return 4
	case HALF, USHORT, SHORT:
		return 2
	case UBYTE, BYTE:
		return 1
	}
	return 0
}

type PrimitiveMode uint8

const (
	POINTS PrimitiveMode = iota
	LINES
	TRIANGLES
	LINE_STRIP
	TRIANGLE_STRIP
)

type AttributeSemantic uint8

const (
	POSITION AttributeSemantic = iota
	NORMAL
	TANGENT
	TEXCOORD_0
	TEXCOORD_1
	TEXCOORD_2
	TEXCOORD_3
	TEXCOORD_4
	TEXCOORD_5
	TEXCOORD_6
	COLOR_0
	JOINTS_0
	WEIGHTS_0
	TANGENTNORMALXZ
)

var semanticNames = [...]string{"POSITION", "NORMAL", "TANGENT",
	"TEXCOORD_0", "TEXCOORD_1", "TEXCOORD_2", "TEXCOORD_3", "TEXCOORD_4", "TEXCOORD_5", "TEXCOORD_6",
	"COLOR_0", "JOINTS_0", "WEIGHTS_0", "TANGENTNORMALXZ"}

func (s AttributeSemantic) String() string {
	if int(s) < len(semanticNames) {
		return semanticNames[s]
	}
	return fmt.Sprintf("AttributeSemantic(%d)", uint8(s))
}

type MaterialMode int8

const (
	MaterialUnknown MaterialMode = iota
	MaterialOpaque
	MaterialTransparent
)

type RoughnessMode uint8

const (
	RoughnessConstant RoughnessMode = iota
	RoughnessMultiplySmoothness
	RoughnessMultiplyRoughness
)

type TextureFormat uint32

const (
	TextureFormatInvalid TextureFormat = iota
	TextureFormatG8
	TextureFormatBGRA8
	TextureFormatBGRE8
	TextureFormatRGBA16
	TextureFormatRGBA16F
	TextureFormatRGBA8
	TextureFormatRGBE8
	TextureFormatD16F
	TextureFormatD24F
	TextureFormatD32F
	TextureFormatRGBAFloat
)

var textureFormatNames = [...]string{"INVALID", "G8", "BGRA8", "BGRE8", "RGBA16", "RGBA16F",
	"RGBA8", "RGBE8", "D16F", "D24F", "D32F", "RGBAFloat"}

func (f TextureFormat) String() string {
	if int(f) < len(textureFormatNames) {
		return textureFormatNames[f]
	}
	return fmt.Sprintf("TextureFormat(%d)", uint32(f))
}

// BytesPerPixel of uncompressed readback formats, 0 when not applicable
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatG8:
		return 1
	case TextureFormatBGRA8, TextureFormatBGRE8, TextureFormatRGBA8, TextureFormatRGBE8:
		return 4
	case TextureFormatRGBA16, TextureFormatRGBA16F:
		return 8
	case TextureFormatRGBAFloat:
		return 16
	}
	return 0
}

type TextureCompression uint32

const (
	TextureUncompressed TextureCompression = iota
	TextureBasisCompressedDeprecated
	TextureCompressionPNG
	TextureCompressionKTX
)

func (c TextureCompression) String() string {
	switch c {
	case TextureUncompressed:
		return "UNCOMPRESSED"
	case TextureBasisCompressedDeprecated:
		return "BASIS_COMPRESSED"
	case TextureCompressionPNG:
		return "PNG"
	case TextureCompressionKTX:
		return "KTX"
	}
	return fmt.Sprintf("TextureCompression(%d)", uint32(c))
}
