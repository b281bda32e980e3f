package interop

import "github.com/go-gl/mathgl/mgl32"

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

type NodeRenderState struct {
	LightmapScaleOffset         [4]float32
	GlobalIlluminationTextureID ResourceID
	LightmapTextureCoordinate   uint8
}

type Node struct {
	Name          string
	Transform     Transform
	Stationary    bool
	OwnerClientID uint64
	DataType      NodeDataType

	ParentID       ResourceID
	DataID         ResourceID
	SkeletonNodeID ResourceID

	LightColour    [4]float32
	LightDirection [3]float32
	LightRadius    float32
	LightRange     float32
	LightType      LightType

	JointIndices []int16
	AnimationIDs []ResourceID
	MaterialIDs  []ResourceID

	RenderState NodeRenderState
	Priority    int32

	URL      string
	QueryURL string
}

func NewNode(name string) *Node {
	return &Node{
		Name:       name,
		Transform:  IdentityTransform(),
		Stationary: true,
		DataType:   NodeDataInvalid,
		RenderState: NodeRenderState{
			LightmapScaleOffset: [4]float32{1, 1, 0, 0},
		},
	}
}
