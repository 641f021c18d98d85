package devices

// CRTC models the 32 indexed registers shared by the MDA and CGA video
// controllers (spec.md §3 CrtcRegisters / GLOSSARY). Two independent
// instances exist, one per adapter; both are driven through the same
// index-latch protocol: writing the index port masks to 5 bits, and the
// data port reads/writes the indexed register.
type CRTC struct {
	registers [32]byte
	index     uint8
}

// WriteIndex stores the CRTC register index, masked to 5 bits (spec.md §3,
// §8 testable property).
func (c *CRTC) WriteIndex(val byte) {
	c.index = val & 0x1F
}

// ReadIndex returns the last-written index (some BIOSes poll it back).
func (c *CRTC) ReadIndex() byte { return c.index }

// ReadData returns the currently-indexed register.
func (c *CRTC) ReadData() byte { return c.registers[c.index] }

// WriteData stores into the currently-indexed register.
func (c *CRTC) WriteData(val byte) { c.registers[c.index] = val }
