package txr

import (
	"github.com/chewxy/math32"

	"github.com/mogaika/geometry_source/config"
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
)

// Kernel maps one source pixel, channels in 0..1, onto the stored pixel
type Kernel func(c [4]float32) [4]float32

const (
	KernelExtractTexture        = "ExtractTexture"
	KernelExtractNormalMap      = "ExtractNormalMap"
	KernelExtractCubeFace       = "ExtractCubeFace"
	KernelConvertRoughnessMetal = "ConvertRoughnessMetallicGreenBlue"
)

// KernelName picks the conversion for a texture, suffixed by the colour space
func KernelName(src *scene.Texture, conversion interop.TextureConversion, colorSpace config.ColorSpace) string {
	name := KernelExtractTexture
	if isCube(src) {
		name = KernelExtractCubeFace
	} else if src.NormalMap {
		name = KernelExtractNormalMap
	}
	if conversion == interop.CONVERT_TO_METALLICROUGHNESS_BLUEGREEN {
		name = KernelConvertRoughnessMetal
	}
	if colorSpace == config.ColorSpaceGamma {
		return name + "Gamma"
	}
	return name + "Linear"
}

func isCube(src *scene.Texture) bool {
	return src.Kind == scene.TextureCube || (src.Kind == scene.TextureRender && src.RenderCube)
}

func identity(c [4]float32) [4]float32 {
	return c
}

// normal maps stored as DXT5nm keep x in alpha, plain ones in red
func normalMap(xFromAlpha bool) Kernel {
	return func(c [4]float32) [4]float32 {
		x := c[0]*2 - 1
		if xFromAlpha {
			x = c[3]*2 - 1
		}
		y := c[1]*2 - 1
		z := math32.Sqrt(math32.Max(0, 1-x*x-y*y))
		return [4]float32{x*0.5 + 0.5, y*0.5 + 0.5, z*0.5 + 0.5, 1}
	}
}

// metallic in red and smoothness in alpha become
// roughness in green and metallic in blue
func roughnessMetallic(c [4]float32) [4]float32 {
	return [4]float32{0, 1 - c[3], c[0], 1}
}

func srgbToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math32.Pow((v+0.055)/1.055, 2.4)
}

// linearize decodes sRGB colour channels, used when the readback is a float
// format which always carries linear values
func linearize(k Kernel) Kernel {
	return func(c [4]float32) [4]float32 {
		r := k(c)
		return [4]float32{srgbToLinear(r[0]), srgbToLinear(r[1]), srgbToLinear(r[2]), r[3]}
	}
}

// kernelFor builds the pixel function matching KernelName
func kernelFor(src *scene.Texture, conversion interop.TextureConversion, colorSpace config.ColorSpace, format interop.TextureFormat) Kernel {
	var k Kernel = identity
	switch {
	case conversion == interop.CONVERT_TO_METALLICROUGHNESS_BLUEGREEN:
		k = roughnessMetallic
	case src.NormalMap && !isCube(src):
		k = normalMap(src.Format == scene.FormatDXT5)
	}
	isFloat := format == interop.TextureFormatRGBA16F || format == interop.TextureFormatRGBAFloat
	if colorSpace == config.ColorSpaceLinear && isFloat && src.SRGB {
		k = linearize(k)
	}
	return k
}
