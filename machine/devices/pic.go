package devices

// PIC is the 8259A register stub: interrupts are never actually injected
// (Non-goals, §1), so both the master and slave controller collapse command
// and data writes onto the same IMR latch (spec.md §4.3, flagged as
// intentionally wrong for real ICW/OCW sequences in §9 but kept as
// specified). Grounded on the 8259A port layout, trimmed to this stub
// behavior.
type PIC struct {
	imr byte
}

// ReadCmd always returns 0 (spec.md §4.3, ports 0x20/0xA0 IN).
func (p *PIC) ReadCmd() byte { return 0 }

// WriteCmd stores the written byte as the IMR, the deliberate
// simplification of ICW/OCW handling (spec.md §4.3, ports 0x20/0xA0 OUT).
func (p *PIC) WriteCmd(val byte) { p.imr = val }

// ReadData returns the latched IMR (ports 0x21/0xA1 IN).
func (p *PIC) ReadData() byte { return p.imr }

// WriteData stores the IMR (ports 0x21/0xA1 OUT).
func (p *PIC) WriteData(val byte) { p.imr = val }
