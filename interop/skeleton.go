package interop

type Skeleton struct {
	Name string
	Path string
	// depth-first, first is the root bone
	BoneIDs       []ResourceID
	RootTransform Transform
}

type TextCanvas struct {
	Text       string
	Font       string
	PointSize  int32
	LineHeight float32
	Colour     [4]float32
}

func NewTextCanvas() *TextCanvas {
	return &TextCanvas{
		PointSize:  64,
		LineHeight: 0.1,
		Colour:     [4]float32{1, 1, 1, 1},
	}
}

type Glyph struct {
	X0, Y0, X1, Y1 uint16
	XOffset        float32
	YOffset        float32
	XAdvance       float32
	XOffset2       float32
	YOffset2       float32
}

type FontMap struct {
	Size   int32
	Glyphs []Glyph
}

type FontAtlas struct {
	FontPath string
	Maps     []FontMap
}

// LoadedResource is reported for every entry of a reloaded store
type LoadedResource struct {
	ID           ResourceID
	Name         string
	LastModified int64
}
