package interop

import "encoding/binary"

// Packed (1 byte alignment) mirrors of the boundary records.
// Pointers are 8 bytes wide. binary.Size gives the packed size.

type ptr = uint64

type transformLayout struct {
	Position [3]float32
	Rotation [4]float32
	Scale    [3]float32
}

type nodeRenderStateLayout struct {
	LightmapScaleOffset         [4]float32
	GlobalIlluminationTextureID uint64
	LightmapTextureCoordinate   uint8
}

type textureAccessorLayout struct {
	Index    uint64
	TexCoord uint8
	Tiling   [2]float32
	Strength float32
}

type pbrMetallicRoughnessLayout struct {
	BaseColorTexture         textureAccessorLayout
	BaseColorFactor          [4]float32
	MetallicRoughnessTexture textureAccessorLayout
	MetallicFactor           float32
	RoughnessMultiplier      float32
	RoughOffset              float32
}

type nodeLayout struct {
	Name          ptr
	Transform     transformLayout
	Stationary    uint8
	OwnerClientID uint64
	DataType      uint8

	ParentID       uint64
	DataID         uint64
	SkeletonNodeID uint64

	LightColour    [4]float32
	LightDirection [3]float32
	LightRadius    float32
	LightRange     float32
	LightType      uint8

	NumJointIndices uint64
	JointIndices    ptr
	NumAnimations   uint64
	AnimationIDs    ptr
	NumMaterials    uint64
	MaterialIDs     ptr

	RenderState nodeRenderStateLayout
	Priority    int32

	URL      ptr
	QueryURL ptr
}

type materialLayout struct {
	Name         ptr
	Path         ptr
	MaterialMode int8

	PBRMetallicRoughness pbrMetallicRoughnessLayout
	NormalTexture        textureAccessorLayout
	OcclusionTexture     textureAccessorLayout
	EmissiveTexture      textureAccessorLayout
	EmissiveFactor       [3]float32

	DoubleSided           uint8
	LightmapTexCoordIndex uint8

	ExtensionAmount int64
	ExtensionIDs    ptr
	Extensions      ptr
}

type textureLayout struct {
	Name ptr
	Path ptr

	Width      uint32
	Height     uint32
	Depth      uint32
	ArrayCount uint32
	MipCount   uint32

	Format      uint32
	Compression uint32
	Compressed  uint8
	DataSize    uint32
	Data        ptr
	ValueScale  float32
	Cubemap     uint8
}

type skeletonLayout struct {
	Name          ptr
	Path          ptr
	NumBones      uint64
	BoneIDs       ptr
	RootTransform transformLayout
}

type meshLayout struct {
	Name ptr
	Path ptr

	NumPrimitiveArrays uint64
	PrimitiveArrays    ptr

	NumAccessors uint64
	AccessorIDs  ptr
	Accessors    ptr

	NumBufferViews uint64
	BufferViewIDs  ptr
	BufferViews    ptr

	NumBuffers uint64
	BufferIDs  ptr
	Buffers    ptr

	InverseBindMatricesAccessor uint64
}

type textCanvasLayout struct {
	Text       ptr
	Font       ptr
	PointSize  int32
	LineHeight float32
	Colour     [4]float32
}

// Struct names used in size queries
const (
	StructTransform            = "Transform"
	StructNodeRenderState      = "NodeRenderState"
	StructTextureAccessor      = "TextureAccessor"
	StructPBRMetallicRoughness = "PBRMetallicRoughness"
	StructNode                 = "InteropNode"
	StructMaterial             = "InteropMaterial"
	StructTexture              = "InteropTexture"
	StructSkeleton             = "InteropSkeleton"
	StructMesh                 = "InteropMesh"
	StructTextCanvas           = "InteropTextCanvas"
)

var layouts = map[string]interface{}{
	StructTransform:            transformLayout{},
	StructNodeRenderState:      nodeRenderStateLayout{},
	StructTextureAccessor:      textureAccessorLayout{},
	StructPBRMetallicRoughness: pbrMetallicRoughnessLayout{},
	StructNode:                 nodeLayout{},
	StructMaterial:             materialLayout{},
	StructTexture:              textureLayout{},
	StructSkeleton:             skeletonLayout{},
	StructMesh:                 meshLayout{},
	StructTextCanvas:           textCanvasLayout{},
}

// StructSize returns the packed size of a boundary struct, -1 when unknown
func StructSize(name string) int64 {
	l, ok := layouts[name]
	if !ok {
		return -1
	}
	return int64(binary.Size(l))
}

func StructNames() []string {
	return []string{
		StructTransform, StructNodeRenderState, StructTextureAccessor, StructPBRMetallicRoughness,
		StructNode, StructMaterial, StructTexture, StructSkeleton, StructMesh, StructTextCanvas,
	}
}
