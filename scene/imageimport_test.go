package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImageFile(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.NRGBA{0, 0, 255, 255})

	for _, test := range []struct {
		name   string
		encode func(w io.Writer, m image.Image) error
		format SourceFormat
	}{
		{"a.png", png.Encode, FormatRGBA32},
		{"b.jpg", func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) }, FormatRGB24},
		{"c.tga", tga.Encode, FormatRGBA32},
	} {
		var buf bytes.Buffer
		require.NoError(t, test.encode(&buf, img), test.name)
		fileName := filepath.Join(t.TempDir(), test.name)
		require.NoError(t, os.WriteFile(fileName, buf.Bytes(), 0666))

		decoded, format, err := DecodeImageFile(fileName)
		require.NoError(t, err, test.name)
		assert.Equal(t, img.Bounds(), decoded.Bounds(), test.name)
		assert.Equal(t, test.format, format, test.name)
	}
}

func TestDecodeImageFileRejectsOtherFiles(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "notes.png")
	require.NoError(t, os.WriteFile(fileName, []byte("plain text, not pixels"), 0666))
	_, _, err := DecodeImageFile(fileName)
	assert.Error(t, err)
}
