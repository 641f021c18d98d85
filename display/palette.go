// Package display renders the CGA text buffer to a 640x200 raster. It is
// an external collaborator boundary (spec.md §1 lists "the graphical
// window that renders the CGA buffer" as out of core scope): Sink is the
// narrow interface the core drives, with a headless no-op implementation
// and an ebiten-backed window behind the !headless build tag.
package display

// Palette is the fixed 16-color CGA palette (spec.md §4.5): black, blue,
// green, cyan, red, magenta, brown, light-gray, then eight brighter
// variants.
var Palette = [16][3]byte{
	{0x00, 0x00, 0x00}, {0x00, 0x00, 0xAA}, {0x00, 0xAA, 0x00}, {0x00, 0xAA, 0xAA},
	{0xAA, 0x00, 0x00}, {0xAA, 0x00, 0xAA}, {0xAA, 0x55, 0x00}, {0xAA, 0xAA, 0xAA},
	{0x55, 0x55, 0x55}, {0x55, 0x55, 0xFF}, {0x55, 0xFF, 0x55}, {0x55, 0xFF, 0xFF},
	{0xFF, 0x55, 0x55}, {0xFF, 0x55, 0xFF}, {0xFF, 0xFF, 0x55}, {0xFF, 0xFF, 0xFF},
}

const (
	Cols      = 80
	Rows      = 25
	GlyphW    = 8
	GlyphH    = 8
	RasterW   = Cols * GlyphW // 640
	RasterH   = Rows * GlyphH // 200
)
