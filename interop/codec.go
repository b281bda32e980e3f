package interop

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/geometry_source/utils"
)

// Payload magics, one per record kind
const (
	MagicNode       = 0x45444f4e // NODE
	MagicMesh       = 0x4853454d // MESH
	MagicMaterial   = 0x5454414d // MATT
	MagicTexture    = 0x52585854 // TXXR
	MagicSkeleton   = 0x4c454b53 // SKEL
	MagicTextCanvas = 0x54584554 // TEXT
	MagicFontAtlas  = 0x544e4f46 // FONT
)

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) u8(v uint8) { e.buf.WriteByte(v) }
func (e *encoder) bool(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}
func (e *encoder) u16(v uint16) { e.buf.Write(binary.LittleEndian.AppendUint16(nil, v)) }
func (e *encoder) u32(v uint32) { e.buf.Write(binary.LittleEndian.AppendUint32(nil, v)) }
func (e *encoder) u64(v uint64) { e.buf.Write(binary.LittleEndian.AppendUint64(nil, v)) }
func (e *encoder) f32(v float32) {
	e.u32(math.Float32bits(v))
}
func (e *encoder) f32s(v ...float32) {
	for _, f := range v {
		e.f32(f)
	}
}
func (e *encoder) bytes(b []byte) {
	e.u32(uint32(len(b)))
	e.buf.Write(b)
}
func (e *encoder) str(s string) { e.bytes([]byte(s)) }

// names travel as NFC utf-8
func (e *encoder) name(s string) { e.str(utils.NormalizeName(s)) }

func (e *encoder) ids(ids []ResourceID) {
	e.u32(uint32(len(ids)))
	for _, id := range ids {
		e.u64(id)
	}
}
func (e *encoder) transform(t Transform) {
	e.f32s(t.Position[:]...)
	e.f32s(t.Rotation.V[0], t.Rotation.V[1], t.Rotation.V[2], t.Rotation.W)
	e.f32s(t.Scale[:]...)
}
func (e *encoder) textureAccessor(ta TextureAccessor) {
	e.u64(ta.Index)
	e.u8(ta.TexCoord)
	e.f32s(ta.Tiling[:]...)
	e.f32(ta.Strength)
}

// zero counts decode to nil, matching freshly built records
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, n)
}

type decoder struct {
	r   *bytes.Reader
	err error
}

func newDecoder(data []byte) *decoder {
	return &decoder{r: bytes.NewReader(data)}
}

func (d *decoder) read(n int) []byte {
	if d.err != nil {
		return make([]byte, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.err = errors.Wrapf(err, "Payload truncated")
	}
	return b
}

func (d *decoder) u8() uint8    { return d.read(1)[0] }
func (d *decoder) bool() bool   { return d.u8() != 0 }
func (d *decoder) u16() uint16  { return binary.LittleEndian.Uint16(d.read(2)) }
func (d *decoder) u32() uint32  { return binary.LittleEndian.Uint32(d.read(4)) }
func (d *decoder) u64() uint64  { return binary.LittleEndian.Uint64(d.read(8)) }
func (d *decoder) f32() float32 { return math.Float32frombits(d.u32()) }
func (d *decoder) count(elemSize int) int {
	n := int(d.u32())
	if d.err == nil && n*elemSize > d.r.Len() {
		d.err = errors.Errorf("Payload count %d exceeds remaining %d bytes", n, d.r.Len())
		return 0
	}
	return n
}
func (d *decoder) bytes() []byte {
	n := d.count(1)
	if n == 0 {
		return nil
	}
	return d.read(n)
}
func (d *decoder) str() string { return string(d.bytes()) }
func (d *decoder) name() string {
	b := d.bytes()
	if !utf8.Valid(b) && d.err == nil {
		d.err = errors.Errorf("Name %q is not utf-8", b)
	}
	return string(b)
}
func (d *decoder) ids() []ResourceID {
	ids := makeSlice[ResourceID](d.count(8))
	for i := range ids {
		ids[i] = d.u64()
	}
	return ids
}
func (d *decoder) vec3() mgl32.Vec3 { return mgl32.Vec3{d.f32(), d.f32(), d.f32()} }
func (d *decoder) transform() Transform {
	var t Transform
	t.Position = d.vec3()
	t.Rotation.V = d.vec3()
	t.Rotation.W = d.f32()
	t.Scale = d.vec3()
	return t
}
func (d *decoder) textureAccessor() TextureAccessor {
	var ta TextureAccessor
	ta.Index = d.u64()
	ta.TexCoord = d.u8()
	ta.Tiling = [2]float32{d.f32(), d.f32()}
	ta.Strength = d.f32()
	return ta
}
func (d *decoder) magic(expected uint32) {
	if m := d.u32(); d.err == nil && m != expected {
		d.err = errors.Errorf("Invalid payload magic %#x, expected %#x", m, expected)
	}
}

func EncodeNode(n *Node) []byte {
	var e encoder
	e.u32(MagicNode)
	e.name(n.Name)
	e.transform(n.Transform)
	e.bool(n.Stationary)
	e.u64(n.OwnerClientID)
	e.u8(uint8(n.DataType))
	e.u64(n.ParentID)
	e.u64(n.DataID)
	e.u64(n.SkeletonNodeID)
	e.f32s(n.LightColour[:]...)
	e.f32s(n.LightDirection[:]...)
	e.f32(n.LightRadius)
	e.f32(n.LightRange)
	e.u8(uint8(n.LightType))
	e.u32(uint32(len(n.JointIndices)))
	for _, j := range n.JointIndices {
		e.u16(uint16(j))
	}
	e.ids(n.AnimationIDs)
	e.ids(n.MaterialIDs)
	e.f32s(n.RenderState.LightmapScaleOffset[:]...)
	e.u64(n.RenderState.GlobalIlluminationTextureID)
	e.u8(n.RenderState.LightmapTextureCoordinate)
	e.u32(uint32(n.Priority))
	e.str(n.URL)
	e.str(n.QueryURL)
	return e.buf.Bytes()
}

func DecodeNode(data []byte) (*Node, error) {
	d := newDecoder(data)
	d.magic(MagicNode)
	n := &Node{}
	n.Name = d.name()
	n.Transform = d.transform()
	n.Stationary = d.bool()
	n.OwnerClientID = d.u64()
	n.DataType = NodeDataType(d.u8())
	n.ParentID = d.u64()
	n.DataID = d.u64()
	n.SkeletonNodeID = d.u64()
	for i := range n.LightColour {
		n.LightColour[i] = d.f32()
	}
	for i := range n.LightDirection {
		n.LightDirection[i] = d.f32()
	}
	n.LightRadius = d.f32()
	n.LightRange = d.f32()
	n.LightType = LightType(d.u8())
	n.JointIndices = makeSlice[int16](d.count(2))
	for i := range n.JointIndices {
		n.JointIndices[i] = int16(d.u16())
	}
	n.AnimationIDs = d.ids()
	n.MaterialIDs = d.ids()
	for i := range n.RenderState.LightmapScaleOffset {
		n.RenderState.LightmapScaleOffset[i] = d.f32()
	}
	n.RenderState.GlobalIlluminationTextureID = d.u64()
	n.RenderState.LightmapTextureCoordinate = d.u8()
	n.Priority = int32(d.u32())
	n.URL = d.str()
	n.QueryURL = d.str()
	return n, errors.Wrapf(d.err, "Failed to decode node")
}

func EncodeMesh(m *Mesh) []byte {
	var e encoder
	e.u32(MagicMesh)
	e.name(m.Name)
	e.str(m.Path)

	e.u32(uint32(len(m.PrimitiveArrays)))
	for _, p := range m.PrimitiveArrays {
		e.u32(uint32(len(p.Attributes)))
		for _, a := range p.Attributes {
			e.u8(uint8(a.Semantic))
			e.u64(a.Accessor)
		}
		e.u64(p.IndicesAccessor)
		e.u64(p.Material)
		e.u8(uint8(p.Mode))
	}

	e.ids(m.AccessorIDs)
	for _, a := range m.Accessors {
		e.u8(uint8(a.Type))
		e.u8(uint8(a.ComponentType))
		e.u64(a.Count)
		e.u64(a.BufferView)
		e.u64(a.ByteOffset)
	}

	e.ids(m.BufferViewIDs)
	for _, v := range m.BufferViews {
		e.u64(v.Buffer)
		e.u64(v.ByteOffset)
		e.u64(v.ByteLength)
		e.u64(v.ByteStride)
	}

	e.ids(m.BufferIDs)
	for _, b := range m.Buffers {
		e.bytes(b.Data)
	}

	e.u64(m.InverseBindMatricesAccessor)
	return e.buf.Bytes()
}

func DecodeMesh(data []byte) (*Mesh, error) {
	d := newDecoder(data)
	d.magic(MagicMesh)
	m := &Mesh{}
	m.Name = d.name()
	m.Path = d.str()

	m.PrimitiveArrays = makeSlice[PrimitiveArray](d.count(1))
	for i := range m.PrimitiveArrays {
		p := &m.PrimitiveArrays[i]
		p.Attributes = makeSlice[Attribute](d.count(9))
		for j := range p.Attributes {
			p.Attributes[j].Semantic = AttributeSemantic(d.u8())
			p.Attributes[j].Accessor = d.u64()
		}
		p.IndicesAccessor = d.u64()
		p.Material = d.u64()
		p.Mode = PrimitiveMode(d.u8())
	}

	m.AccessorIDs = d.ids()
	m.Accessors = makeSlice[Accessor](len(m.AccessorIDs))
	for i := range m.Accessors {
		a := &m.Accessors[i]
		a.Type = AccessorDataType(d.u8())
		a.ComponentType = ComponentType(d.u8())
		a.Count = d.u64()
		a.BufferView = d.u64()
		a.ByteOffset = d.u64()
	}

	m.BufferViewIDs = d.ids()
	m.BufferViews = makeSlice[BufferView](len(m.BufferViewIDs))
	for i := range m.BufferViews {
		v := &m.BufferViews[i]
		v.Buffer = d.u64()
		v.ByteOffset = d.u64()
		v.ByteLength = d.u64()
		v.ByteStride = d.u64()
	}

	m.BufferIDs = d.ids()
	m.Buffers = makeSlice[GeometryBuffer](len(m.BufferIDs))
	for i := range m.Buffers {
		m.Buffers[i].Data = d.bytes()
	}

	m.InverseBindMatricesAccessor = d.u64()
	return m, errors.Wrapf(d.err, "Failed to decode mesh")
}

func EncodeMaterial(m *Material) []byte {
	var e encoder
	e.u32(MagicMaterial)
	e.name(m.Name)
	e.str(m.Path)
	e.u8(uint8(m.MaterialMode))
	pbr := &m.PBRMetallicRoughness
	e.textureAccessor(pbr.BaseColorTexture)
	e.f32s(pbr.BaseColorFactor[:]...)
	e.textureAccessor(pbr.MetallicRoughnessTexture)
	e.f32s(pbr.MetallicFactor, pbr.RoughnessMultiplier, pbr.RoughOffset)
	e.textureAccessor(m.NormalTexture)
	e.textureAccessor(m.OcclusionTexture)
	e.textureAccessor(m.EmissiveTexture)
	e.f32s(m.EmissiveFactor[:]...)
	e.bool(m.DoubleSided)
	e.u8(m.LightmapTexCoordIndex)
	return e.buf.Bytes()
}

func DecodeMaterial(data []byte) (*Material, error) {
	d := newDecoder(data)
	d.magic(MagicMaterial)
	m := &Material{}
	m.Name = d.name()
	m.Path = d.str()
	m.MaterialMode = MaterialMode(d.u8())
	pbr := &m.PBRMetallicRoughness
	pbr.BaseColorTexture = d.textureAccessor()
	for i := range pbr.BaseColorFactor {
		pbr.BaseColorFactor[i] = d.f32()
	}
	pbr.MetallicRoughnessTexture = d.textureAccessor()
	pbr.MetallicFactor = d.f32()
	pbr.RoughnessMultiplier = d.f32()
	pbr.RoughOffset = d.f32()
	m.NormalTexture = d.textureAccessor()
	m.OcclusionTexture = d.textureAccessor()
	m.EmissiveTexture = d.textureAccessor()
	for i := range m.EmissiveFactor {
		m.EmissiveFactor[i] = d.f32()
	}
	m.DoubleSided = d.bool()
	m.LightmapTexCoordIndex = d.u8()
	return m, errors.Wrapf(d.err, "Failed to decode material")
}

func EncodeTexture(t *Texture) []byte {
	var e encoder
	e.u32(MagicTexture)
	e.name(t.Name)
	e.str(t.Path)
	e.u32(t.Width)
	e.u32(t.Height)
	e.u32(t.Depth)
	e.u32(t.ArrayCount)
	e.u32(t.MipCount)
	e.u32(uint32(t.Format))
	e.u32(uint32(t.Compression))
	e.bool(t.Compressed)
	e.f32(t.ValueScale)
	e.bool(t.Cubemap)
	e.bytes(t.Data)
	return e.buf.Bytes()
}

func DecodeTexture(data []byte) (*Texture, error) {
	d := newDecoder(data)
	d.magic(MagicTexture)
	t := &Texture{}
	t.Name = d.name()
	t.Path = d.str()
	t.Width = d.u32()
	t.Height = d.u32()
	t.Depth = d.u32()
	t.ArrayCount = d.u32()
	t.MipCount = d.u32()
	t.Format = TextureFormat(d.u32())
	t.Compression = TextureCompression(d.u32())
	t.Compressed = d.bool()
	t.ValueScale = d.f32()
	t.Cubemap = d.bool()
	t.Data = d.bytes()
	return t, errors.Wrapf(d.err, "Failed to decode texture")
}

func EncodeSkeleton(s *Skeleton) []byte {
	var e encoder
	e.u32(MagicSkeleton)
	e.name(s.Name)
	e.str(s.Path)
	e.ids(s.BoneIDs)
	e.transform(s.RootTransform)
	return e.buf.Bytes()
}

func DecodeSkeleton(data []byte) (*Skeleton, error) {
	d := newDecoder(data)
	d.magic(MagicSkeleton)
	s := &Skeleton{}
	s.Name = d.name()
	s.Path = d.str()
	s.BoneIDs = d.ids()
	s.RootTransform = d.transform()
	return s, errors.Wrapf(d.err, "Failed to decode skeleton")
}

func EncodeTextCanvas(c *TextCanvas) []byte {
	var e encoder
	e.u32(MagicTextCanvas)
	e.str(c.Text)
	e.str(c.Font)
	e.u32(uint32(c.PointSize))
	e.f32(c.LineHeight)
	e.f32s(c.Colour[:]...)
	return e.buf.Bytes()
}

func DecodeTextCanvas(data []byte) (*TextCanvas, error) {
	d := newDecoder(data)
	d.magic(MagicTextCanvas)
	c := &TextCanvas{}
	c.Text = d.str()
	c.Font = d.str()
	c.PointSize = int32(d.u32())
	c.LineHeight = d.f32()
	for i := range c.Colour {
		c.Colour[i] = d.f32()
	}
	return c, errors.Wrapf(d.err, "Failed to decode text canvas")
}

func EncodeFontAtlas(f *FontAtlas) []byte {
	var e encoder
	e.u32(MagicFontAtlas)
	e.str(f.FontPath)
	e.u32(uint32(len(f.Maps)))
	for _, m := range f.Maps {
		e.u32(uint32(m.Size))
		e.u32(uint32(len(m.Glyphs)))
		for _, g := range m.Glyphs {
			e.u16(g.X0)
			e.u16(g.Y0)
			e.u16(g.X1)
			e.u16(g.Y1)
			e.f32s(g.XOffset, g.YOffset, g.XAdvance, g.XOffset2, g.YOffset2)
		}
	}
	return e.buf.Bytes()
}

func DecodeFontAtlas(data []byte) (*FontAtlas, error) {
	d := newDecoder(data)
	d.magic(MagicFontAtlas)
	f := &FontAtlas{}
	f.FontPath = d.str()
	f.Maps = makeSlice[FontMap](d.count(8))
	for i := range f.Maps {
		m := &f.Maps[i]
		m.Size = int32(d.u32())
		m.Glyphs = makeSlice[Glyph](d.count(28))
		for j := range m.Glyphs {
			g := &m.Glyphs[j]
			g.X0, g.Y0, g.X1, g.Y1 = d.u16(), d.u16(), d.u16(), d.u16()
			g.XOffset, g.YOffset, g.XAdvance = d.f32(), d.f32(), d.f32()
			g.XOffset2, g.YOffset2 = d.f32(), d.f32()
		}
	}
	return f, errors.Wrapf(d.err, "Failed to decode font atlas")
}
