package store

import (
	"os"

	"github.com/mogaika/bmfont"
	"github.com/pkg/errors"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/utils"
)

// glyph tables cover the single byte range, like the name codec
const fontGlyphCount = 0x100

// NewFontMap lays out the glyphs of a BMFont description
func NewFontMap(bmf *bmfont.Font, size int32) interop.FontMap {
	fm := interop.FontMap{Size: size, Glyphs: make([]interop.Glyph, fontGlyphCount)}
	for i := range bmf.Chars {
		char := &bmf.Chars[i]
		if int(char.Id) < 0 || int(char.Id) >= fontGlyphCount {
			utils.LogDebug("[store] Skipping glyph %d outside the table", char.Id)
			continue
		}
		fm.Glyphs[char.Id] = interop.Glyph{
			X0:       uint16(char.X),
			Y0:       uint16(char.Y),
			X1:       uint16(char.X + char.Width),
			Y1:       uint16(char.Y + char.Height),
			XOffset:  float32(char.Xoffset),
			YOffset:  float32(char.Yoffset),
			XAdvance: float32(char.Xadvance),
			XOffset2: float32(char.Xoffset) + float32(char.Width),
			YOffset2: float32(char.Yoffset) + float32(char.Height),
		}
	}
	return fm
}

func loadFont(fontFile string) (*bmfont.Font, error) {
	raw, err := os.ReadFile(fontFile)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read font %q", fontFile)
	}
	bmf, err := bmfont.NewFontFromBuf(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot parse font %q", fontFile)
	}
	return bmf, nil
}

// StoreFont adds a size to the atlas of a font, replacing a map of the
// same size
func (gs *GeometryStore) StoreFont(id interop.ResourceID, fontFile, path string, lastModified int64, size int32) bool {
	if id == 0 {
		return false
	}
	bmf, err := loadFont(fontFile)
	if err != nil {
		utils.LogError("[store] %v", err)
		return false
	}
	fm := NewFontMap(bmf, size)

	gs.mu.Lock()
	defer gs.mu.Unlock()
	e, ok := gs.fonts[id]
	if !ok || e.Path != path {
		e = &fontEntry{atlas: &interop.FontAtlas{FontPath: path}}
		gs.fonts[id] = e
	}
	e.Meta = Meta{ID: id, Kind: KindFont, Path: path, Name: path, LastModified: lastModified}

	replaced := false
	for i := range e.atlas.Maps {
		if e.atlas.Maps[i].Size == size {
			e.atlas.Maps[i] = fm
			replaced = true
		}
	}
	if !replaced {
		e.atlas.Maps = append(e.atlas.Maps, fm)
	}
	delete(gs.unloaded, id)
	gs.rememberPath(id, path)
	return true
}

func (gs *GeometryStore) GetFontAtlas(path string) (*interop.FontAtlas, bool) {
	id := gs.EnsurePathResourceIsLoaded(path)
	if id == 0 {
		return nil, false
	}
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	e, ok := gs.fonts[id]
	if !ok {
		return nil, false
	}
	return e.atlas, true
}
