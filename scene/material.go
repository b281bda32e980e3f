package scene

import (
	"github.com/mogaika/geometry_source/utils"
)

type PropertyKind uint8

const (
	PropertyFloat PropertyKind = iota
	PropertyColor
	PropertyTexture
)

// Shader declares which properties a material family exposes.
// Lookups against a material are answered from this schema, once.
type Shader struct {
	Name        string
	RenderQueue int
	// nil accepts any property
	Properties map[string]PropertyKind
}

const (
	RenderQueueGeometry    = 2000
	RenderQueueAlphaTest   = 2450
	RenderQueueTransparent = 3000
)

var standardProperties = map[string]PropertyKind{
	"_Color":             PropertyColor,
	"_MainTex":           PropertyTexture,
	"_Mode":              PropertyFloat,
	"_Metallic":          PropertyFloat,
	"_Glossiness":        PropertyFloat,
	"_GlossMapScale":     PropertyFloat,
	"_MetallicGlossMap":  PropertyTexture,
	"_BumpMap":           PropertyTexture,
	"_BumpScale":         PropertyFloat,
	"_OcclusionMap":      PropertyTexture,
	"_OcclusionStrength": PropertyFloat,
	"_EmissionMap":       PropertyTexture,
	"_EmissionColor":     PropertyColor,
}

var specularProperties = map[string]PropertyKind{
	"_Color":             PropertyColor,
	"_MainTex":           PropertyTexture,
	"_Mode":              PropertyFloat,
	"_Glossiness":        PropertyFloat,
	"_GlossMapScale":     PropertyFloat,
	"_SpecColor":         PropertyColor,
	"_SpecGlossMap":      PropertyTexture,
	"_BumpMap":           PropertyTexture,
	"_BumpScale":         PropertyFloat,
	"_OcclusionMap":      PropertyTexture,
	"_OcclusionStrength": PropertyFloat,
	"_EmissionMap":       PropertyTexture,
	"_EmissionColor":     PropertyColor,
}

var shaders = map[string]*Shader{
	"Standard": {
		Name: "Standard", RenderQueue: RenderQueueGeometry, Properties: standardProperties,
	},
	"Standard (Specular setup)": {
		Name: "Standard (Specular setup)", RenderQueue: RenderQueueGeometry, Properties: specularProperties,
	},
	"Unlit/Texture": {
		Name: "Unlit/Texture", RenderQueue: RenderQueueGeometry,
		Properties: map[string]PropertyKind{"_MainTex": PropertyTexture},
	},
	"Unlit/Transparent": {
		Name: "Unlit/Transparent", RenderQueue: RenderQueueTransparent,
		Properties: map[string]PropertyKind{"_MainTex": PropertyTexture, "_Color": PropertyColor},
	},
}

// LookupShader returns a builtin schema; unknown names get an open schema
func LookupShader(name string) *Shader {
	if s, ok := shaders[name]; ok {
		return s
	}
	return &Shader{Name: name, RenderQueue: RenderQueueGeometry}
}

type TextureSlot struct {
	Texture Handle
	Scale   [2]float32
}

type Material struct {
	Name   string
	Asset  AssetInfo
	Shader *Shader
	// negative means use the shader queue
	RenderQueue int

	floats   map[string]float32
	colors   map[string]utils.ColorFloat
	textures map[string]TextureSlot
}

func (m *Material) ObjectName() string { return m.Name }
func (m *Material) TypeName() string   { return "Material" }

func NewMaterial(name string, shader *Shader) *Material {
	if shader == nil {
		shader = LookupShader("Standard")
	}
	return &Material{
		Name:        name,
		Shader:      shader,
		RenderQueue: -1,
		floats:      make(map[string]float32),
		colors:      make(map[string]utils.ColorFloat),
		textures:    make(map[string]TextureSlot),
	}
}

func (m *Material) accepts(name string, kind PropertyKind) bool {
	if m.Shader.Properties == nil {
		return true
	}
	k, ok := m.Shader.Properties[name]
	if !ok || k != kind {
		utils.LogWarn("[scene] Shader %q of material %q has no property %q", m.Shader.Name, m.Name, name)
		return false
	}
	return true
}

func (m *Material) SetFloat(name string, v float32) bool {
	if !m.accepts(name, PropertyFloat) {
		return false
	}
	m.floats[name] = v
	return true
}

func (m *Material) SetColor(name string, c utils.ColorFloat) bool {
	if !m.accepts(name, PropertyColor) {
		return false
	}
	m.colors[name] = c
	return true
}

func (m *Material) SetTexture(name string, slot TextureSlot) bool {
	if !m.accepts(name, PropertyTexture) {
		return false
	}
	if slot.Scale == [2]float32{} {
		slot.Scale = [2]float32{1, 1}
	}
	m.textures[name] = slot
	return true
}

// HasProperty answers from the shader schema, or from the set values
// for shaders without one
func (m *Material) HasProperty(name string) bool {
	if m.Shader.Properties != nil {
		_, ok := m.Shader.Properties[name]
		return ok
	}
	_, f := m.floats[name]
	_, c := m.colors[name]
	_, t := m.textures[name]
	return f || c || t
}

func (m *Material) Float(name string) (float32, bool) {
	v, ok := m.floats[name]
	return v, ok
}

func (m *Material) FloatOr(name string, def float32) float32 {
	if v, ok := m.floats[name]; ok {
		return v
	}
	return def
}

func (m *Material) Color(name string) (utils.ColorFloat, bool) {
	c, ok := m.colors[name]
	return c, ok
}

func (m *Material) Texture(name string) Handle {
	return m.textures[name].Texture
}

func (m *Material) TextureScale(name string) [2]float32 {
	if slot, ok := m.textures[name]; ok {
		return slot.Scale
	}
	return [2]float32{1, 1}
}

func (m *Material) MainTexture() Handle {
	return m.Texture("_MainTex")
}

func (m *Material) MainTextureScale() [2]float32 {
	return m.TextureScale("_MainTex")
}

// EffectiveRenderQueue resolves a negative material queue to the shader's
func (m *Material) EffectiveRenderQueue() int {
	if m.RenderQueue < 0 {
		return m.Shader.RenderQueue
	}
	return m.RenderQueue
}

func (m *Material) EmissiveIsBlack() bool {
	c, ok := m.colors["_EmissionColor"]
	return !ok || c.IsBlack()
}

// Textures lists every texture slot in use
func (m *Material) Textures() []Handle {
	var hs []Handle
	for _, slot := range m.textures {
		if !slot.Texture.IsNil() {
			hs = append(hs, slot.Texture)
		}
	}
	return hs
}
