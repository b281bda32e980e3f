// Package mat maps shader properties onto the fixed metallic-roughness
// material record.
package mat

import (
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/utils"
)

// blend modes of the standard shader _Mode property
const (
	BlendOpaque = iota
	BlendCutout
	BlendFade
	BlendTransparent
)

// queues above this are not opaque geometry
const RenderQueueGeometryLast = 2500

// TextureAdder resolves a texture slot into a stored texture id, 0 when
// the slot is empty or the texture could not be added
type TextureAdder interface {
	AddTexture(h scene.Handle, conversion interop.TextureConversion) interop.ResourceID
}

type Options struct {
	TreatTransparentAsDoubleSided bool
}

func Mode(m *scene.Material) interop.MaterialMode {
	mode := interop.MaterialOpaque
	if blend, ok := m.Float("_Mode"); ok {
		switch int(blend) {
		case BlendFade, BlendTransparent:
			mode = interop.MaterialTransparent
		}
	}
	if m.EffectiveRenderQueue() > RenderQueueGeometryLast {
		mode = interop.MaterialTransparent
	}
	return mode
}

// DoubleSided only looks at the render queue: exactly the transparent
// queue counts as double sided
func DoubleSided(m *scene.Material, opts Options) bool {
	return opts.TreatTransparentAsDoubleSided && m.EffectiveRenderQueue() == scene.RenderQueueTransparent
}

func Encode(m *scene.Material, textures TextureAdder, opts Options) *interop.Material {
	out := interop.NewMaterial(m.Name)
	out.MaterialMode = Mode(m)
	tiling := m.MainTextureScale()

	pbr := &out.PBRMetallicRoughness
	pbr.BaseColorTexture.Index = textures.AddTexture(m.MainTexture(), interop.CONVERT_NOTHING)
	pbr.BaseColorTexture.Tiling = tiling
	pbr.BaseColorFactor = utils.ColorWhite
	if c, ok := m.Color("_Color"); ok {
		pbr.BaseColorFactor = c.Linear()
	}

	var metallicRoughness interop.ResourceID
	if m.HasProperty("_MetallicGlossMap") {
		metallicRoughness = textures.AddTexture(m.Texture("_MetallicGlossMap"), interop.CONVERT_TO_METALLICROUGHNESS_BLUEGREEN)
		pbr.MetallicRoughnessTexture.Index = metallicRoughness
		pbr.MetallicRoughnessTexture.Tiling = tiling
	}
	if metallicRoughness != 0 {
		// smoothness = scale*lookup, so roughness = (1-scale) + scale*lookup.roughness
		glossMapScale := m.FloatOr("_GlossMapScale", 1)
		pbr.MetallicFactor = 1
		pbr.RoughnessMultiplier = glossMapScale
		pbr.RoughOffset = 1 - glossMapScale
	} else {
		pbr.MetallicFactor = m.FloatOr("_Metallic", 0)
		pbr.RoughnessMultiplier = 0
		pbr.RoughOffset = 1 - m.FloatOr("_Glossiness", 0)
	}

	if m.HasProperty("_BumpMap") {
		out.NormalTexture.Index = textures.AddTexture(m.Texture("_BumpMap"), interop.CONVERT_NOTHING)
		out.NormalTexture.Tiling = tiling
	}
	out.NormalTexture.Strength = m.FloatOr("_BumpScale", 1)

	if m.HasProperty("_OcclusionMap") {
		out.OcclusionTexture.Index = textures.AddTexture(m.Texture("_OcclusionMap"), interop.CONVERT_NOTHING)
		out.OcclusionTexture.Tiling = tiling
	}
	out.OcclusionTexture.Strength = m.FloatOr("_OcclusionStrength", 1)

	if !m.EmissiveIsBlack() {
		if emission := m.Texture("_EmissionMap"); !emission.IsNil() {
			out.EmissiveTexture.Index = textures.AddTexture(emission, interop.CONVERT_NOTHING)
			out.EmissiveTexture.Tiling = tiling
		}
		if c, ok := m.Color("_EmissionColor"); ok {
			out.EmissiveFactor = c.Linear().RGB()
		}
	}

	// baked lightmaps live in the second uv channel
	out.LightmapTexCoordIndex = 1
	out.DoubleSided = DoubleSided(m, opts)
	return out
}
