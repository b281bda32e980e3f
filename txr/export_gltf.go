package txr

import (
	"bytes"
	"image/png"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/utils/gltfutils"
)

type GLTFTextureExported struct {
	TextureIndex uint32
	ImageIndex   uint32
	SamplerIndex uint32
}

func ExportGLTF(id interop.ResourceID, t *interop.Texture, gltfCacher *gltfutils.GLTFCacher) (*GLTFTextureExported, error) {
	gte := &GLTFTextureExported{}
	doc := gltfCacher.Doc

	sampler := &gltf.Sampler{
		Name:      t.Name + "_sampler",
		MinFilter: gltf.MinLinear,
		MagFilter: gltf.MagLinear,
		WrapS:     gltf.WrapRepeat,
		WrapT:     gltf.WrapRepeat,
	}
	gte.SamplerIndex = uint32(len(doc.Samplers))
	doc.Samplers = append(doc.Samplers, sampler)

	img, err := Image(t, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to decode image %q", t.Name)
	}
	var pngBytes bytes.Buffer
	if err := png.Encode(&pngBytes, img); err != nil {
		return nil, errors.Wrapf(err, "Unable to encode image %q", t.Name)
	}

	gte.ImageIndex, err = modeler.WriteImage(doc, t.Name+"_image", "image/png", &pngBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to write gltf image")
	}

	gte.TextureIndex = uint32(len(doc.Textures))
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:    t.Name,
		Sampler: gltf.Index(gte.SamplerIndex),
		Source:  gltf.Index(gte.ImageIndex),
	})

	gltfCacher.AddCache(id, gte)
	return gte, nil
}
