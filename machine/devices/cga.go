package devices

import "strings"

const (
	CgaCols  = 80
	CgaRows  = 25
	CgaCells = CgaCols * CgaRows
	// CgaDefaultCell is a space, light-gray on black (spec.md §3).
	CgaDefaultCell = 0x0720
)

// CGA is the 80x25 text-mode cell buffer plus cursor and the shadow copy
// used to detect guest writes to 0xB8000 (spec.md §3, §4.5). Grounded on
// original_source/src/main.rs's cga_put_char/CGA_BUFFER, reworked from a
// package-level static into an owned value per the legacy-PC device bank's
// single-owning-context style.
type CGA struct {
	cells  [CgaCells]uint16
	shadow [CgaCells]uint16
	cursor int
}

// NewCGA returns a blanked buffer with the cursor at the top-left.
func NewCGA() *CGA {
	c := &CGA{}
	for i := range c.cells {
		c.cells[i] = CgaDefaultCell
		c.shadow[i] = CgaDefaultCell
	}
	return c
}

// PutChar advances the cursor for the core's own print side-channel
// (spec.md §4.5): \r returns to column 0, \n moves down a row, anything
// else writes attribute 0x07 and advances by one. Scrolls and clamps the
// cursor to 1999 exactly as specified.
func (c *CGA) PutChar(ch byte) {
	switch ch {
	case '\r':
		c.cursor -= c.cursor % CgaCols
		return
	case '\n':
		c.cursor += CgaCols
	default:
		if c.cursor >= CgaCells {
			c.scroll()
		}
		c.cells[c.cursor] = 0x0700 | uint16(ch)
		c.cursor++
	}
	if c.cursor >= CgaCells {
		c.scroll()
	}
	if c.cursor >= CgaCells {
		c.cursor = CgaCells - 1
	}
}

func (c *CGA) scroll() {
	copy(c.cells[:], c.cells[CgaCols:])
	for i := CgaCols * (CgaRows - 1); i < CgaCells; i++ {
		c.cells[i] = CgaDefaultCell
	}
	c.cursor -= CgaCols
}

// Cursor reports the current cell index, clamped to [0, 2000).
func (c *CGA) Cursor() int { return c.cursor }

// Cell returns the cell at index i.
func (c *CGA) Cell(i int) uint16 { return c.cells[i] }

// Snapshot returns a copy of the full cell array, for the framebuffer
// renderer (spec.md §4.2 step 3, §4.5 Rendering).
func (c *CGA) Snapshot() [CgaCells]uint16 { return c.cells }

// Resync compares guest RAM at 0xB8000 (passed as the 4000-byte region
// already sliced by the caller) against the shadow array cell by cell,
// updating both the shadow and the core's cell array on mismatch. Returns
// whether any cell changed, so the caller knows whether to present a frame
// (spec.md §4.2 step 3).
func (c *CGA) Resync(ram []byte) bool {
	dirty := false
	for i := 0; i < CgaCells; i++ {
		word := uint16(ram[2*i]) | uint16(ram[2*i+1])<<8
		if word != c.shadow[i] {
			c.shadow[i] = word
			c.cells[i] = word
			dirty = true
		}
	}
	return dirty
}

// DumpText renders the 80x25 buffer as plain text, codepoint per cell,
// blanking null bytes, mirroring original_source/src/main.rs's
// print_cga_buffer used for the post-run dump.
func (c *CGA) DumpText() string {
	var b strings.Builder
	for r := 0; r < CgaRows; r++ {
		for col := 0; col < CgaCols; col++ {
			ch := byte(c.cells[r*CgaCols+col] & 0xFF)
			if ch == 0 {
				ch = ' '
			}
			b.WriteByte(ch)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
