package mat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/utils/gltfutils"
)

type fakeTextures struct {
	calls map[scene.Handle]interop.TextureConversion
}

func (f *fakeTextures) AddTexture(h scene.Handle, conversion interop.TextureConversion) interop.ResourceID {
	if h.IsNil() {
		return 0
	}
	if f.calls == nil {
		f.calls = make(map[scene.Handle]interop.TextureConversion)
	}
	f.calls[h] = conversion
	return interop.ResourceID(1000 + h)
}

func TestEncodeDefaults(t *testing.T) {
	m := scene.NewMaterial("Plain", scene.LookupShader("Standard"))
	out := Encode(m, &fakeTextures{}, Options{TreatTransparentAsDoubleSided: true})

	assert.Equal(t, "Plain", out.Name)
	assert.Equal(t, interop.MaterialOpaque, out.MaterialMode)
	assert.False(t, out.DoubleSided)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, out.PBRMetallicRoughness.BaseColorFactor)
	assert.Zero(t, out.PBRMetallicRoughness.BaseColorTexture.Index)
	assert.Equal(t, float32(0), out.PBRMetallicRoughness.MetallicFactor)
	assert.Equal(t, float32(0), out.PBRMetallicRoughness.RoughnessMultiplier)
	assert.Equal(t, float32(1), out.PBRMetallicRoughness.RoughOffset)
	assert.Equal(t, float32(1), out.NormalTexture.Strength)
	assert.Equal(t, float32(1), out.OcclusionTexture.Strength)
	assert.Equal(t, [3]float32{}, out.EmissiveFactor)
	assert.Equal(t, uint8(1), out.LightmapTexCoordIndex)
}

func TestEncodeMetallicGlossMap(t *testing.T) {
	m := scene.NewMaterial("Metal", scene.LookupShader("Standard"))
	m.SetTexture("_MainTex", scene.TextureSlot{Texture: 1, Scale: [2]float32{2, 3}})
	m.SetTexture("_MetallicGlossMap", scene.TextureSlot{Texture: 2})
	m.SetFloat("_GlossMapScale", 0.25)
	m.SetFloat("_Metallic", 0.1)

	textures := &fakeTextures{}
	out := Encode(m, textures, Options{})
	pbr := out.PBRMetallicRoughness

	assert.Equal(t, interop.ResourceID(1001), pbr.BaseColorTexture.Index)
	assert.Equal(t, [2]float32{2, 3}, pbr.BaseColorTexture.Tiling)
	assert.Equal(t, interop.ResourceID(1002), pbr.MetallicRoughnessTexture.Index)
	assert.Equal(t, [2]float32{2, 3}, pbr.MetallicRoughnessTexture.Tiling)
	assert.Equal(t, interop.CONVERT_TO_METALLICROUGHNESS_BLUEGREEN, textures.calls[2])
	assert.Equal(t, interop.CONVERT_NOTHING, textures.calls[1])

	assert.Equal(t, float32(1), pbr.MetallicFactor)
	assert.Equal(t, float32(0.25), pbr.RoughnessMultiplier)
	assert.Equal(t, float32(0.75), pbr.RoughOffset)
}

func TestEncodeSmoothnessWithoutTexture(t *testing.T) {
	m := scene.NewMaterial("Gloss", scene.LookupShader("Standard"))
	m.SetFloat("_Metallic", 0.5)
	m.SetFloat("_Glossiness", 0.8)
	out := Encode(m, &fakeTextures{}, Options{})
	assert.Equal(t, float32(0.5), out.PBRMetallicRoughness.MetallicFactor)
	assert.InDelta(t, 0.2, out.PBRMetallicRoughness.RoughOffset, 1e-6)
}

func TestMode(t *testing.T) {
	for _, test := range []struct {
		blend float32
		queue int
		mode  interop.MaterialMode
	}{
		{BlendOpaque, -1, interop.MaterialOpaque},
		{BlendCutout, -1, interop.MaterialOpaque},
		{BlendFade, -1, interop.MaterialTransparent},
		{BlendTransparent, -1, interop.MaterialTransparent},
		{BlendOpaque, 2500, interop.MaterialOpaque},
		{BlendOpaque, 2501, interop.MaterialTransparent},
	} {
		m := scene.NewMaterial("m", scene.LookupShader("Standard"))
		m.SetFloat("_Mode", test.blend)
		m.RenderQueue = test.queue
		assert.Equal(t, test.mode, Mode(m), "blend %v queue %v", test.blend, test.queue)
	}
}

func TestDoubleSidedFollowsTransparentQueue(t *testing.T) {
	opts := Options{TreatTransparentAsDoubleSided: true}

	unlit := scene.NewMaterial("glass", scene.LookupShader("Unlit/Transparent"))
	assert.True(t, DoubleSided(unlit, opts))
	assert.False(t, DoubleSided(unlit, Options{}))

	unlit.RenderQueue = 3001
	assert.False(t, DoubleSided(unlit, opts))
	assert.Equal(t, interop.MaterialTransparent, Mode(unlit))
}

func TestEmission(t *testing.T) {
	m := scene.NewMaterial("Lamp", scene.LookupShader("Standard"))
	m.SetTexture("_EmissionMap", scene.TextureSlot{Texture: 5})
	out := Encode(m, &fakeTextures{}, Options{})
	// black emission colour leaves emission out entirely
	assert.Zero(t, out.EmissiveTexture.Index)

	m.SetColor("_EmissionColor", [4]float32{1, 0, 0, 1})
	out = Encode(m, &fakeTextures{}, Options{})
	assert.Equal(t, interop.ResourceID(1005), out.EmissiveTexture.Index)
	assert.Equal(t, [3]float32{1, 0, 0}, out.EmissiveFactor)
}

func TestExportGLTF(t *testing.T) {
	m := scene.NewMaterial("Brick", scene.LookupShader("Standard"))
	m.SetTexture("_MainTex", scene.TextureSlot{Texture: 1})
	m.SetTexture("_BumpMap", scene.TextureSlot{Texture: 2})
	m.SetFloat("_BumpScale", 0.5)
	encoded := Encode(m, &fakeTextures{}, Options{})

	cacher := gltfutils.NewCacher()
	exported := map[interop.ResourceID]uint32{}
	glme, err := ExportGLTF(77, encoded, cacher, func(id interop.ResourceID) (uint32, error) {
		idx := uint32(len(exported))
		exported[id] = idx
		return idx, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), glme.MaterialId)
	assert.Same(t, glme, cacher.GetCached(77))

	gm := cacher.Doc.Materials[0]
	require.NotNil(t, gm.PBRMetallicRoughness.BaseColorTexture)
	assert.Equal(t, exported[1001], gm.PBRMetallicRoughness.BaseColorTexture.Index)
	require.NotNil(t, gm.NormalTexture)
	assert.Equal(t, exported[1002], *gm.NormalTexture.Index)
	assert.Equal(t, float32(0.5), *gm.NormalTexture.Scale)
	assert.Nil(t, gm.OcclusionTexture)
	assert.Nil(t, gm.EmissiveTexture)
}
