package txr

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"

	"github.com/mogaika/geometry_source/3rdparty/half"
	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
)

// Plan is the outcome of the format rules for one texture
type Plan struct {
	Width       int
	Height      int
	MipCount    int
	Format      interop.TextureFormat
	Compression interop.TextureCompression
	HighQuality bool
}

// TargetSize halves until the larger side fits maxSize
func TargetSize(width, height, maxSize int) (int, int) {
	for maxSize > 0 && max(width, height) > maxSize {
		width = (width + 1) / 2
		height = (height + 1) / 2
	}
	return width, height
}

// ClampMipCount drops levels that would be smaller than one pixel
func ClampMipCount(mipCount, width, height int) int {
	if mipCount < 1 {
		return 1
	}
	for mipCount > 1 && (1<<(mipCount-1) > width || 1<<(mipCount-1) > height) {
		mipCount--
	}
	return mipCount
}

func MipSize(width, height, level int) (int, int) {
	return max(1, width>>level), max(1, height>>level)
}

func NewPlan(src *scene.Texture, maxSize int) Plan {
	p := Plan{Format: interop.TextureFormatRGBA8, Compression: interop.TextureCompressionKTX}
	p.Width, p.Height = TargetSize(src.Width, src.Height, maxSize)
	p.MipCount = ClampMipCount(src.MipCount, p.Width, p.Height)

	switch src.Format {
	case scene.FormatRGBAFloat:
		p.Format = interop.TextureFormatRGBAFloat
		p.HighQuality = false
	case scene.FormatDXT5:
		p.Compression = interop.TextureCompressionPNG
	case scene.FormatBC6H, scene.FormatRGBAHalf:
		p.Format = interop.TextureFormatRGBA16F
		p.Compression = interop.TextureCompressionKTX
		p.HighQuality = true
	}
	if src.NormalMap || src.CompressedHQ {
		p.HighQuality = true
	}
	if p.HighQuality {
		p.Compression = interop.TextureCompressionKTX
	}
	// 8 bit data goes out as png, hq compression gains nothing there
	if p.Format == interop.TextureFormatRGBA8 && p.HighQuality {
		p.Compression = interop.TextureCompressionPNG
		p.HighQuality = false
	}
	return p
}

func scaled(src image.Image, width, height int) *image.NRGBA64 {
	dst := image.NewNRGBA64(image.Rect(0, 0, width, height))
	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	return dst
}

func clamp01(v float32) float32 {
	if v < 0 || math32.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Readback resamples src to the mip size, runs the kernel over every pixel
// and packs the result in the requested format
func Readback(src image.Image, k Kernel, format interop.TextureFormat, width, height int) []byte {
	img := scaled(src, width, height)
	bpp := format.BytesPerPixel()
	out := make([]byte, width*height*bpp)

	var c [4]float32
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := img.NRGBA64At(x, y)
			c[0] = float32(p.R) / 0xffff
			c[1] = float32(p.G) / 0xffff
			c[2] = float32(p.B) / 0xffff
			c[3] = float32(p.A) / 0xffff
			r := k(c)

			o := out[(y*width+x)*bpp:]
			switch format {
			case interop.TextureFormatRGBAFloat:
				for i, v := range r {
					binary.LittleEndian.PutUint32(o[i*4:], math.Float32bits(v))
				}
			case interop.TextureFormatRGBA16F:
				half.PutFloat16s(o, r[:])
			default:
				for i, v := range r {
					o[i] = uint8(clamp01(v)*255 + 0.5)
				}
			}
		}
	}
	return out
}
