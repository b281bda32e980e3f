package interop

type TextureAccessor struct {
	Index    ResourceID
	TexCoord uint8
	Tiling   [2]float32
	Strength float32
}

func NewTextureAccessor() TextureAccessor {
	return TextureAccessor{Tiling: [2]float32{1, 1}, Strength: 1}
}

type PBRMetallicRoughness struct {
	BaseColorTexture         TextureAccessor
	BaseColorFactor          [4]float32
	MetallicRoughnessTexture TextureAccessor
	MetallicFactor           float32
	RoughnessMultiplier      float32
	RoughOffset              float32
}

type Material struct {
	Name         string
	Path         string
	MaterialMode MaterialMode

	PBRMetallicRoughness PBRMetallicRoughness
	NormalTexture        TextureAccessor
	OcclusionTexture     TextureAccessor
	EmissiveTexture      TextureAccessor
	EmissiveFactor       [3]float32

	DoubleSided           bool
	LightmapTexCoordIndex uint8
}

func NewMaterial(name string) *Material {
	return &Material{
		Name:         name,
		MaterialMode: MaterialOpaque,
		PBRMetallicRoughness: PBRMetallicRoughness{
			BaseColorTexture:         NewTextureAccessor(),
			BaseColorFactor:          [4]float32{1, 1, 1, 1},
			MetallicRoughnessTexture: NewTextureAccessor(),
			MetallicFactor:           0,
			RoughnessMultiplier:      0,
			RoughOffset:              1,
		},
		NormalTexture:    NewTextureAccessor(),
		OcclusionTexture: NewTextureAccessor(),
		EmissiveTexture:  NewTextureAccessor(),
	}
}

// TextureIDs lists every texture referenced by the material
func (m *Material) TextureIDs() []ResourceID {
	ids := make([]ResourceID, 0, 5)
	for _, ta := range []TextureAccessor{
		m.PBRMetallicRoughness.BaseColorTexture,
		m.PBRMetallicRoughness.MetallicRoughnessTexture,
		m.NormalTexture,
		m.OcclusionTexture,
		m.EmissiveTexture,
	} {
		if ta.Index != 0 {
			ids = append(ids, ta.Index)
		}
	}
	return ids
}
