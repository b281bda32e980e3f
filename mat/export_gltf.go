package mat

import (
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/utils/gltfutils"
)

type GLTFMaterialExported struct {
	MaterialId uint32
}

// TextureExporter writes a stored texture into the shared document and
// returns its glTF texture index
type TextureExporter func(id interop.ResourceID) (uint32, error)

func floatPtr(v float32) *float32 {
	return &v
}

func exportIndex(ta interop.TextureAccessor, export TextureExporter) (*uint32, error) {
	if ta.Index == 0 {
		return nil, nil
	}
	idx, err := export(ta.Index)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to export texture %d", ta.Index)
	}
	return &idx, nil
}

func textureInfo(ta interop.TextureAccessor, export TextureExporter) (*gltf.TextureInfo, error) {
	idx, err := exportIndex(ta, export)
	if idx == nil || err != nil {
		return nil, err
	}
	return &gltf.TextureInfo{Index: *idx, TexCoord: uint32(ta.TexCoord)}, nil
}

func ExportGLTF(id interop.ResourceID, m *interop.Material, gltfCacher *gltfutils.GLTFCacher, exportTexture TextureExporter) (*GLTFMaterialExported, error) {
	pbr := &m.PBRMetallicRoughness
	baseColor := pbr.BaseColorFactor

	gltfMaterial := &gltf.Material{
		Name:        m.Name,
		DoubleSided: m.DoubleSided,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &baseColor,
			MetallicFactor:  floatPtr(pbr.MetallicFactor),
			// without a texture roughness is the constant offset
			RoughnessFactor: floatPtr(pbr.RoughOffset + pbr.RoughnessMultiplier),
		},
		EmissiveFactor: m.EmissiveFactor,
	}
	if m.MaterialMode == interop.MaterialTransparent {
		gltfMaterial.AlphaMode = gltf.AlphaBlend
	}

	var err error
	if gltfMaterial.PBRMetallicRoughness.BaseColorTexture, err = textureInfo(pbr.BaseColorTexture, exportTexture); err != nil {
		return nil, errors.Wrapf(err, "Base color of %q", m.Name)
	}
	if gltfMaterial.PBRMetallicRoughness.MetallicRoughnessTexture, err = textureInfo(pbr.MetallicRoughnessTexture, exportTexture); err != nil {
		return nil, errors.Wrapf(err, "Metallic roughness of %q", m.Name)
	}
	if gltfMaterial.EmissiveTexture, err = textureInfo(m.EmissiveTexture, exportTexture); err != nil {
		return nil, errors.Wrapf(err, "Emission of %q", m.Name)
	}

	if idx, err := exportIndex(m.NormalTexture, exportTexture); err != nil {
		return nil, errors.Wrapf(err, "Normal map of %q", m.Name)
	} else if idx != nil {
		gltfMaterial.NormalTexture = &gltf.NormalTexture{
			Index:    idx,
			TexCoord: uint32(m.NormalTexture.TexCoord),
			Scale:    floatPtr(m.NormalTexture.Strength),
		}
	}
	if idx, err := exportIndex(m.OcclusionTexture, exportTexture); err != nil {
		return nil, errors.Wrapf(err, "Occlusion of %q", m.Name)
	} else if idx != nil {
		gltfMaterial.OcclusionTexture = &gltf.OcclusionTexture{
			Index:    idx,
			TexCoord: uint32(m.OcclusionTexture.TexCoord),
			Strength: floatPtr(m.OcclusionTexture.Strength),
		}
	}

	glme := &GLTFMaterialExported{MaterialId: uint32(len(gltfCacher.Doc.Materials))}
	gltfCacher.Doc.Materials = append(gltfCacher.Doc.Materials, gltfMaterial)
	gltfCacher.AddCache(id, glme)
	return glme, nil
}
