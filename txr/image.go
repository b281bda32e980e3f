package txr

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/HugoSmits86/nativewebp"
	"github.com/pkg/errors"

	"github.com/mogaika/geometry_source/3rdparty/half"
	"github.com/mogaika/geometry_source/interop"
)

func to16(v float32) uint16 {
	return uint16(clamp01(v)*0xffff + 0.5)
}

// Image decodes one subresource of a stored texture, index runs
// array-major then mip-minor like the blob
func Image(t *interop.Texture, index int) (image.Image, error) {
	images, err := interop.UnpackSubresources(t.Data)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(images) {
		return nil, errors.Errorf("Subresource %d out of range, texture has %d", index, len(images))
	}
	mipCount := max(1, int(t.MipCount))
	w, h := MipSize(int(t.Width), int(t.Height), index%mipCount)
	raw := images[index]

	bpp := t.Format.BytesPerPixel()
	if bpp == 0 {
		return nil, errors.Errorf("Cannot decode format %v", t.Format)
	}
	if len(raw) != w*h*bpp {
		return nil, errors.Errorf("Subresource %d is %d bytes, %dx%d %v needs %d", index, len(raw), w, h, t.Format, w*h*bpp)
	}

	rect := image.Rect(0, 0, w, h)
	switch t.Format {
	case interop.TextureFormatRGBA8:
		img := image.NewNRGBA(rect)
		copy(img.Pix, raw)
		return img, nil
	case interop.TextureFormatRGBA16F, interop.TextureFormatRGBAFloat:
		var values []float32
		if t.Format == interop.TextureFormatRGBA16F {
			values = half.Float16s(raw)
		} else {
			values = make([]float32, len(raw)/4)
			for i := range values {
				values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
			}
		}
		img := image.NewNRGBA64(rect)
		for i := 0; i < w*h; i++ {
			v := values[i*4:]
			img.SetNRGBA64(i%w, i/w, color.NRGBA64{R: to16(v[0]), G: to16(v[1]), B: to16(v[2]), A: to16(v[3])})
		}
		return img, nil
	}
	return nil, errors.Errorf("Cannot decode format %v", t.Format)
}

// WritePreview encodes the top image as "png" or "webp"
func WritePreview(w io.Writer, t *interop.Texture, format string) error {
	img, err := Image(t, 0)
	if err != nil {
		return errors.Wrapf(err, "Texture %q", t.Name)
	}
	switch format {
	case "webp":
		return nativewebp.Encode(w, img, nil)
	case "png", "":
		return png.Encode(w, img)
	}
	return errors.Errorf("Unknown preview format %q", format)
}
