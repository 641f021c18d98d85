package display

// Sink receives a fully-rendered 640x200 RGBA raster whenever the core's
// CGA resync (spec.md §4.2 step 3) finds dirty cells.
type Sink interface {
	Present(frame []byte) error
	Close() error
}

// Render converts the 2,000 CGA cells into a 640x200 RGBA raster using the
// fixed palette and font, applying the blink-suppresses-foreground rule
// (spec.md §4.5: "while the blink flag is set, the foreground glyph is not
// drawn").
func Render(cells [Cols * Rows]uint16, blinkOn bool) []byte {
	frame := make([]byte, RasterW*RasterH*4)
	for cellIdx, cell := range cells {
		ch := byte(cell)
		attr := byte(cell >> 8)
		fg := Palette[attr&0x0F]
		bg := Palette[(attr>>4)&0x07]
		blink := attr&0x80 != 0

		col := cellIdx % Cols
		row := cellIdx / Cols
		glyph := Glyph(ch)
		for gy := 0; gy < GlyphH; gy++ {
			bits := glyph[gy]
			for gx := 0; gx < GlyphW; gx++ {
				set := bits&(1<<(7-gx)) != 0 && !(blink && !blinkOn)
				color := bg
				if set {
					color = fg
				}
				px := (row*GlyphH+gy)*RasterW + (col*GlyphW + gx)
				frame[px*4+0] = color[0]
				frame[px*4+1] = color[1]
				frame[px*4+2] = color[2]
				frame[px*4+3] = 0xFF
			}
		}
	}
	return frame
}
