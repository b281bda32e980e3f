package scene

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"github.com/pkg/errors"
)

// DecodeImageFile loads png, jpeg or tga source images and reports the
// source format the authoring tool would have used for them.
// Decoders are picked explicitly: tga registers itself with an empty magic
// and would claim every input passed to image.Decode.
func DecodeImageFile(fileName string) (image.Image, SourceFormat, error) {
	raw, err := os.ReadFile(fileName)
	if err != nil {
		return nil, "", errors.Wrapf(err, "Failed to read image")
	}

	decode := tga.Decode
	isJpeg := false
	// tga has no magic, trust the extension
	if !strings.EqualFold(filepath.Ext(fileName), ".tga") {
		kind, err := filetype.Match(raw)
		if err != nil {
			return nil, "", errors.Wrapf(err, "Failed to detect type of %q", fileName)
		}
		if kind == filetype.Unknown || !filetype.IsImage(raw) {
			return nil, "", errors.Errorf("File %q is not an image", fileName)
		}
		switch kind.MIME.Value {
		case "image/png":
			decode = png.Decode
		case "image/jpeg":
			decode = jpeg.Decode
			isJpeg = true
		default:
			return nil, "", errors.Errorf("Image %q has unsupported type %s", fileName, kind.MIME.Value)
		}
	}

	img, err := decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", errors.Wrapf(err, "Failed to decode %q", fileName)
	}

	format := FormatRGBA32
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		format = FormatRGBAHalf
	case *image.Gray:
		format = FormatR8
	case *image.YCbCr:
		format = FormatRGB24
	}
	if isJpeg {
		format = FormatRGB24
	}
	return img, format, nil
}
