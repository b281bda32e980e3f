package scene

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/utils"
)

type assetEntry struct {
	// reference used by other entries, defaults to Path then Name
	Key     string `yaml:"key"`
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	LocalID int64  `yaml:"local_id"`
}

func (e *assetEntry) key() string {
	if e.Key != "" {
		return e.Key
	}
	if e.Path != "" {
		return e.Path
	}
	return e.Name
}

func (e *assetEntry) info() AssetInfo {
	return AssetInfo{Path: e.Path, LocalID: e.LocalID}
}

func (e *assetEntry) name() string {
	if e.Name != "" {
		return e.Name
	}
	base := filepath.Base(e.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type textureEntry struct {
	assetEntry   `yaml:",inline"`
	Kind         string   `yaml:"kind"`
	Format       string   `yaml:"format"`
	NormalMap    bool     `yaml:"normal_map"`
	CompressedHQ bool     `yaml:"compressed_hq"`
	SRGB         *bool    `yaml:"srgb"`
	RenderCube   bool     `yaml:"render_cube"`
	MipCount     int      `yaml:"mip_count"`
	Files        []string `yaml:"files"`
}

type textureSlotEntry struct {
	Texture string     `yaml:"texture"`
	Scale   [2]float32 `yaml:"scale"`
}

type materialEntry struct {
	assetEntry  `yaml:",inline"`
	Shader      string                      `yaml:"shader"`
	RenderQueue *int                        `yaml:"render_queue"`
	Floats      map[string]float32          `yaml:"floats"`
	Colors      map[string][4]float32       `yaml:"colors"`
	Textures    map[string]textureSlotEntry `yaml:"textures"`
}

type meshEntry struct {
	assetEntry `yaml:",inline"`
	Readable   *bool `yaml:"readable"`
	// glTF file to import from, relative to the asset root
	Source    string `yaml:"source"`
	MeshIndex int    `yaml:"mesh_index"`

	Positions [][3]float32  `yaml:"positions"`
	Normals   [][3]float32  `yaml:"normals"`
	Tangents  [][4]float32  `yaml:"tangents"`
	UV0       [][2]float32  `yaml:"uv0"`
	UV2       [][2]float32  `yaml:"uv2"`
	Joints    [][4]int32    `yaml:"joints"`
	Weights   [][4]float32  `yaml:"weights"`
	Bindposes [][16]float32 `yaml:"bindposes"`
	Indices   []uint32      `yaml:"indices"`
	Index16   bool          `yaml:"index16"`
	SubMeshes [][2]uint32   `yaml:"submeshes"`
}

type fontEntry struct {
	assetEntry `yaml:",inline"`
	Size       int32 `yaml:"size"`
}

type rendererEntry struct {
	Enabled             *bool       `yaml:"enabled"`
	Mesh                string      `yaml:"mesh"`
	Materials           []string    `yaml:"materials"`
	LightmapIndex       *int        `yaml:"lightmap_index"`
	LightmapScaleOffset *[4]float32 `yaml:"lightmap_scale_offset"`
	RootBone            string      `yaml:"root_bone"`
	Bones               []string    `yaml:"bones"`
}

type lightEntry struct {
	Enabled   *bool      `yaml:"enabled"`
	Type      string     `yaml:"type"`
	Color     [4]float32 `yaml:"color"`
	Intensity float32    `yaml:"intensity"`
	Range     float32    `yaml:"range"`
}

type textCanvasEntry struct {
	Text       string      `yaml:"text"`
	Font       string      `yaml:"font"`
	Size       int32       `yaml:"size"`
	LineHeight float32     `yaml:"line_height"`
	Colour     *[4]float32 `yaml:"colour"`
}

type objectEntry struct {
	Name     string      `yaml:"name"`
	Active   *bool       `yaml:"active"`
	Position [3]float32  `yaml:"position"`
	Rotation *[4]float32 `yaml:"rotation"`
	Scale    *[3]float32 `yaml:"scale"`

	Mesh           *rendererEntry   `yaml:"mesh"`
	SkinnedMesh    *rendererEntry   `yaml:"skinned_mesh"`
	Light          *lightEntry      `yaml:"light"`
	Link           *Link            `yaml:"link"`
	TextCanvas     *textCanvasEntry `yaml:"text_canvas"`
	SkeletonRoot   *SkeletonRoot    `yaml:"skeleton_root"`
	StreamableRoot *StreamableRoot  `yaml:"streamable_root"`
	Streamable     *struct {
		Stationary      *bool `yaml:"stationary"`
		IncludeChildren *bool `yaml:"include_children"`
	} `yaml:"streamable"`
	StreamableNode *StreamableNode `yaml:"streamable_node"`
	Animator       *struct {
		Clips []string `yaml:"clips"`
	} `yaml:"animator"`
	MeshTracker *MeshTracker `yaml:"mesh_tracker"`

	Children []objectEntry `yaml:"children"`
}

type sceneFile struct {
	Name      string          `yaml:"name"`
	Lightmaps []string        `yaml:"lightmaps"`
	Textures  []textureEntry  `yaml:"textures"`
	Materials []materialEntry `yaml:"materials"`
	Meshes    []meshEntry     `yaml:"meshes"`
	Fonts     []fontEntry     `yaml:"fonts"`
	Clips     []assetEntry    `yaml:"animation_clips"`
	Objects   []objectEntry   `yaml:"objects"`
}

type loader struct {
	scene     *Scene
	assetRoot string
	assets    map[string]Handle
	// bone references are resolved once every object exists
	fixups []func() error
}

// Load reads a scene description; asset files are resolved under assetRoot
func Load(fileName string, assetRoot string) (*Scene, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read scene %q", fileName)
	}
	s, err := Parse(data, assetRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load scene %q", fileName)
	}
	s.Path = fileName
	if s.Name == "" {
		base := filepath.Base(fileName)
		s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return s, nil
}

func Parse(data []byte, assetRoot string) (*Scene, error) {
	data, err := utils.TextToUtf8(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read scene")
	}
	var f sceneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse scene")
	}

	l := &loader{
		scene:     NewScene(f.Name),
		assetRoot: assetRoot,
		assets:    make(map[string]Handle),
	}

	for i := range f.Textures {
		if err := l.loadTexture(&f.Textures[i]); err != nil {
			return nil, err
		}
	}
	for i := range f.Materials {
		if err := l.loadMaterial(&f.Materials[i]); err != nil {
			return nil, err
		}
	}
	for i := range f.Meshes {
		if err := l.loadMesh(&f.Meshes[i]); err != nil {
			return nil, err
		}
	}
	for i := range f.Fonts {
		if err := l.loadFont(&f.Fonts[i]); err != nil {
			return nil, err
		}
	}
	for i := range f.Clips {
		e := &f.Clips[i]
		l.register(e.key(), l.scene.Add(&AnimationClip{Name: e.name(), Asset: e.info()}))
	}
	for _, key := range f.Lightmaps {
		h, err := l.ref(key, "lightmap")
		if err != nil {
			return nil, err
		}
		l.scene.Lightmaps = append(l.scene.Lightmaps, h)
	}
	for i := range f.Objects {
		if err := l.loadObject(&f.Objects[i], NilHandle); err != nil {
			return nil, err
		}
	}
	for _, fix := range l.fixups {
		if err := fix(); err != nil {
			return nil, err
		}
	}
	return l.scene, nil
}

func (l *loader) register(key string, h Handle) {
	if _, exists := l.assets[key]; exists {
		utils.LogWarn("[scene] Asset key %q defined twice, using the last one", key)
	}
	l.assets[key] = h
}

func (l *loader) ref(key string, what string) (Handle, error) {
	if key == "" {
		return NilHandle, nil
	}
	h, ok := l.assets[key]
	if !ok {
		return NilHandle, errors.Errorf("Unknown %s %q", what, key)
	}
	return h, nil
}

func (l *loader) file(p string) string {
	return filepath.Join(l.assetRoot, filepath.FromSlash(p))
}

var textureKinds = map[string]TextureKind{
	"":        Texture2D,
	"2d":      Texture2D,
	"2darray": Texture2DArray,
	"3d":      Texture3D,
	"cube":    TextureCube,
	"render":  TextureRender,
}

func (l *loader) loadTexture(e *textureEntry) error {
	t := &Texture{
		Name:         e.name(),
		Asset:        e.info(),
		Format:       SourceFormat(e.Format),
		NormalMap:    e.NormalMap,
		CompressedHQ: e.CompressedHQ,
		SRGB:         !e.NormalMap,
		RenderCube:   e.RenderCube,
		MipCount:     e.MipCount,
	}
	if e.SRGB != nil {
		t.SRGB = *e.SRGB
	}
	if kind, ok := textureKinds[strings.ToLower(e.Kind)]; ok {
		t.Kind = kind
	} else {
		t.Kind = TextureUnsupported
	}

	files := e.Files
	if len(files) == 0 && e.Path != "" {
		files = []string{e.Path}
	}
	for _, f := range files {
		img, format, err := DecodeImageFile(l.file(f))
		if err != nil {
			return errors.Wrapf(err, "Texture %q", e.key())
		}
		if t.Format == "" {
			t.Format = format
		}
		t.Images = append(t.Images, img)
	}
	if len(t.Images) != 0 {
		b := t.Images[0].Bounds()
		t.Width, t.Height = b.Dx(), b.Dy()
	}
	if t.Kind == Texture2DArray || t.Kind == Texture3D {
		t.Depth = len(t.Images)
	}
	if t.MipCount <= 0 {
		t.MipCount = fullMipCount(t.Width, t.Height)
	}
	if t.Format == "" {
		t.Format = FormatRGBA32
	}
	l.register(e.key(), l.scene.Add(t))
	return nil
}

func fullMipCount(w, h int) int {
	n := 1
	for w > 1 || h > 1 {
		w, h = (w+1)/2, (h+1)/2
		n++
	}
	return n
}

func (l *loader) loadMaterial(e *materialEntry) error {
	shaderName := e.Shader
	if shaderName == "" {
		shaderName = "Standard"
	}
	m := NewMaterial(e.name(), LookupShader(shaderName))
	m.Asset = e.info()
	if e.RenderQueue != nil {
		m.RenderQueue = *e.RenderQueue
	}
	for name, v := range e.Floats {
		m.SetFloat(name, v)
	}
	for name, c := range e.Colors {
		m.SetColor(name, utils.ColorFloat(c))
	}
	for name, slot := range e.Textures {
		h, err := l.ref(slot.Texture, "texture")
		if err != nil {
			return errors.Wrapf(err, "Material %q", e.key())
		}
		m.SetTexture(name, TextureSlot{Texture: h, Scale: slot.Scale})
	}
	l.register(e.key(), l.scene.Add(m))
	return nil
}

func (l *loader) loadMesh(e *meshEntry) error {
	var m *Mesh
	if e.Source != "" {
		var err error
		if m, err = ImportGLTFMesh(l.file(e.Source), e.MeshIndex); err != nil {
			return errors.Wrapf(err, "Mesh %q", e.key())
		}
		if e.Name != "" {
			m.Name = e.Name
		}
		if e.LocalID == 0 {
			e.LocalID = int64(e.MeshIndex)
		}
	} else {
		m = &Mesh{Name: e.name(), Index16: e.Index16, Indices: e.Indices}
		for _, v := range e.Positions {
			m.Positions = append(m.Positions, v)
		}
		for _, v := range e.Normals {
			m.Normals = append(m.Normals, v)
		}
		for _, v := range e.Tangents {
			m.Tangents = append(m.Tangents, v)
		}
		for _, v := range e.UV0 {
			m.UV0 = append(m.UV0, v)
		}
		for _, v := range e.UV2 {
			m.UV2 = append(m.UV2, v)
		}
		for _, v := range e.Bindposes {
			m.Bindposes = append(m.Bindposes, mgl32.Mat4(v))
		}
		if len(e.Joints) != len(e.Weights) {
			return errors.Errorf("Mesh %q has %d joints and %d weights", e.key(), len(e.Joints), len(e.Weights))
		}
		for i := range e.Joints {
			m.BoneWeights = append(m.BoneWeights, BoneWeight{Joints: e.Joints[i], Weights: e.Weights[i]})
		}
		for _, sm := range e.SubMeshes {
			m.SubMeshes = append(m.SubMeshes, SubMesh{IndexStart: sm[0], IndexCount: sm[1]})
		}
		if len(m.SubMeshes) == 0 && len(m.Indices) != 0 {
			m.SubMeshes = []SubMesh{{IndexStart: 0, IndexCount: uint32(len(m.Indices))}}
		}
	}
	m.Asset = e.info()
	m.Readable = e.Readable == nil || *e.Readable
	l.register(e.key(), l.scene.Add(m))
	return nil
}

func (l *loader) loadFont(e *fontEntry) error {
	data, err := os.ReadFile(l.file(e.Path))
	if err != nil {
		return errors.Wrapf(err, "Font %q", e.key())
	}
	f := &Font{Name: e.name(), Asset: e.info(), Size: e.Size, Data: data}
	if f.Size == 0 {
		f.Size = 64
	}
	l.register(e.key(), l.scene.Add(f))
	return nil
}

var lightTypes = map[string]interop.LightType{
	"spot":        interop.LightSpot,
	"directional": interop.LightDirectional,
	"point":       interop.LightPoint,
	"area":        interop.LightArea,
	"disc":        interop.LightDisc,
}

func (l *loader) refs(keys []string, what string) ([]Handle, error) {
	hs := make([]Handle, len(keys))
	for i, key := range keys {
		h, err := l.ref(key, what)
		if err != nil {
			return nil, err
		}
		hs[i] = h
	}
	return hs, nil
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func (l *loader) loadObject(e *objectEntry, parent Handle) error {
	g := l.scene.NewGameObject(e.Name, parent)
	g.Active = boolOr(e.Active, true)
	g.LocalPosition = e.Position
	if e.Rotation != nil {
		g.LocalRotation = mgl32.Quat{W: e.Rotation[3], V: mgl32.Vec3{e.Rotation[0], e.Rotation[1], e.Rotation[2]}}.Normalize()
	}
	if e.Scale != nil {
		g.LocalScale = *e.Scale
	}

	if r := e.Mesh; r != nil {
		mesh, err := l.ref(r.Mesh, "mesh")
		if err != nil {
			return errors.Wrapf(err, "Object %q", g.Path())
		}
		mats, err := l.refs(r.Materials, "material")
		if err != nil {
			return errors.Wrapf(err, "Object %q", g.Path())
		}
		g.MeshFilter = &MeshFilter{Mesh: mesh}
		g.MeshRenderer = &MeshRenderer{
			Enabled:             boolOr(r.Enabled, true),
			Materials:           mats,
			LightmapIndex:       -1,
			LightmapScaleOffset: [4]float32{1, 1, 0, 0},
		}
		if r.LightmapIndex != nil {
			g.MeshRenderer.LightmapIndex = *r.LightmapIndex
		}
		if r.LightmapScaleOffset != nil {
			g.MeshRenderer.LightmapScaleOffset = *r.LightmapScaleOffset
		}
	}

	if r := e.SkinnedMesh; r != nil {
		mesh, err := l.ref(r.Mesh, "mesh")
		if err != nil {
			return errors.Wrapf(err, "Object %q", g.Path())
		}
		mats, err := l.refs(r.Materials, "material")
		if err != nil {
			return errors.Wrapf(err, "Object %q", g.Path())
		}
		smr := &SkinnedMeshRenderer{Enabled: boolOr(r.Enabled, true), Mesh: mesh, Materials: mats}
		g.SkinnedMeshRenderer = smr
		rootBone, bones, owner := r.RootBone, r.Bones, g.Path()
		l.fixups = append(l.fixups, func() error {
			if rootBone != "" {
				rb := l.scene.FindGameObject(rootBone)
				if rb == nil {
					return errors.Errorf("Object %q: root bone %q not found", owner, rootBone)
				}
				smr.RootBone = rb.Handle()
			}
			for _, b := range bones {
				bone := l.scene.FindGameObject(b)
				if bone == nil {
					return errors.Errorf("Object %q: bone %q not found", owner, b)
				}
				smr.Bones = append(smr.Bones, bone.Handle())
			}
			return nil
		})
	}

	if le := e.Light; le != nil {
		lt, ok := lightTypes[strings.ToLower(le.Type)]
		if !ok {
			return errors.Errorf("Object %q: unknown light type %q", g.Path(), le.Type)
		}
		g.Light = &Light{
			Enabled:   boolOr(le.Enabled, true),
			Type:      lt,
			Color:     utils.ColorFloat(le.Color),
			Intensity: le.Intensity,
			Range:     le.Range,
		}
	}

	if e.Link != nil {
		link := *e.Link
		g.Link = &link
	}

	if tc := e.TextCanvas; tc != nil {
		font, err := l.ref(tc.Font, "font")
		if err != nil {
			return errors.Wrapf(err, "Object %q", g.Path())
		}
		canvas := NewTextCanvas()
		canvas.Text = tc.Text
		canvas.Font = font
		if tc.Size != 0 {
			canvas.Size = tc.Size
		}
		if tc.LineHeight != 0 {
			canvas.LineHeight = tc.LineHeight
		}
		if tc.Colour != nil {
			canvas.Colour = utils.ColorFloat(*tc.Colour)
		}
		g.TextCanvas = canvas
	}

	if e.SkeletonRoot != nil {
		sr := *e.SkeletonRoot
		g.SkeletonRoot = &sr
	}
	if e.StreamableRoot != nil {
		sr := *e.StreamableRoot
		g.StreamableRoot = &sr
	}
	if e.Streamable != nil {
		g.StreamableProperties = &StreamableProperties{
			IsStationary:    boolOr(e.Streamable.Stationary, true),
			IncludeChildren: boolOr(e.Streamable.IncludeChildren, true),
		}
	}
	if e.StreamableNode != nil {
		sn := *e.StreamableNode
		g.StreamableNode = &sn
	}
	if e.Animator != nil {
		clips, err := l.refs(e.Animator.Clips, "animation clip")
		if err != nil {
			return errors.Wrapf(err, "Object %q", g.Path())
		}
		g.Animator = &Animator{Clips: clips}
	}
	if e.MeshTracker != nil {
		mt := *e.MeshTracker
		g.MeshTracker = &mt
	}

	for i := range e.Children {
		if err := l.loadObject(&e.Children[i], g.Handle()); err != nil {
			return err
		}
	}
	return nil
}
