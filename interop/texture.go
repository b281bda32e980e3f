package interop

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

type Texture struct {
	Name string
	Path string

	Width      uint32
	Height     uint32
	Depth      uint32
	ArrayCount uint32
	MipCount   uint32

	Format      TextureFormat
	Compression TextureCompression
	Compressed  bool
	ValueScale  float32
	Cubemap     bool

	// subresource blob, see PackSubresources
	Data []byte
}

func NewTexture(name string) *Texture {
	return &Texture{
		Name:        name,
		Depth:       1,
		ArrayCount:  1,
		MipCount:    1,
		Format:      TextureFormatInvalid,
		Compression: TextureUncompressed,
		ValueScale:  1,
	}
}

// ImageCount is the number of subresources the blob must carry
func (t *Texture) ImageCount() int {
	return int(t.ArrayCount) * int(t.MipCount)
}

// PackSubresources builds the blob:
// uint16 count, count*uint32 absolute offsets, then the images back to back
func PackSubresources(images [][]byte) ([]byte, error) {
	if len(images) > math.MaxUint16 {
		return nil, errors.Errorf("Too many subresources: %d", len(images))
	}
	header := 2 + 4*len(images)
	total := header
	for _, img := range images {
		total += len(img)
	}
	if uint64(total) > math.MaxUint32 {
		return nil, errors.Errorf("Subresource blob too large: %d bytes", total)
	}

	blob := make([]byte, total)
	binary.LittleEndian.PutUint16(blob[0:], uint16(len(images)))
	offset := header
	for i, img := range images {
		binary.LittleEndian.PutUint32(blob[2+4*i:], uint32(offset))
		copy(blob[offset:], img)
		offset += len(img)
	}
	return blob, nil
}

func UnpackSubresources(blob []byte) ([][]byte, error) {
	if len(blob) < 2 {
		return nil, errors.Errorf("Subresource blob too short: %d bytes", len(blob))
	}
	count := int(binary.LittleEndian.Uint16(blob))
	header := 2 + 4*count
	if len(blob) < header {
		return nil, errors.Errorf("Subresource blob header truncated: %d < %d", len(blob), header)
	}
	offsets := make([]int, count+1)
	for i := 0; i < count; i++ {
		offsets[i] = int(binary.LittleEndian.Uint32(blob[2+4*i:]))
	}
	offsets[count] = len(blob)

	images := make([][]byte, count)
	for i := 0; i < count; i++ {
		if offsets[i] < header || offsets[i] > offsets[i+1] {
			return nil, errors.Errorf("Subresource %d has invalid offset %d", i, offsets[i])
		}
		images[i] = blob[offsets[i]:offsets[i+1]]
	}
	return images, nil
}
