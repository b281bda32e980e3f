package scene

import (
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/utils"
)

type MeshFilter struct {
	Mesh Handle
}

type MeshRenderer struct {
	Enabled   bool
	Materials []Handle
	// -1 for none
	LightmapIndex       int
	LightmapScaleOffset [4]float32
}

type SkinnedMeshRenderer struct {
	Enabled   bool
	Mesh      Handle
	Materials []Handle
	RootBone  Handle
	Bones     []Handle
}

type Light struct {
	Enabled   bool
	Type      interop.LightType
	Color     utils.ColorFloat
	Intensity float32
	Range     float32
}

type Link struct {
	URL      string `yaml:"url"`
	QueryURL string `yaml:"query_url"`
}

type TextCanvas struct {
	Text       string
	Font       Handle
	Size       int32
	LineHeight float32
	Colour     utils.ColorFloat
}

func NewTextCanvas() *TextCanvas {
	return &TextCanvas{Size: 64, LineHeight: 0.1, Colour: utils.ColorWhite}
}

// SkeletonRoot marks the top of a bone hierarchy
type SkeletonRoot struct {
	AssetPath string `yaml:"asset_path"`
}

// StreamableRoot carries per-hierarchy streaming parameters
type StreamableRoot struct {
	OwnerClientID uint64 `yaml:"owner_client_id"`
	Priority      int32  `yaml:"priority"`
}

type StreamableProperties struct {
	IsStationary    bool
	IncludeChildren bool
}

func NewStreamableProperties() *StreamableProperties {
	return &StreamableProperties{IsStationary: true, IncludeChildren: true}
}

// StreamableNode records the id the node was last stored under
type StreamableNode struct {
	NodeID interop.ResourceID `yaml:"node_id"`
}

type Animator struct {
	Clips []Handle
}

// MeshTracker stands in for a mesh that is not available locally,
// only its resource path is known
type MeshTracker struct {
	Path string `yaml:"path"`
}
