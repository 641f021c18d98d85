package devices

import "io"

// Keyboard models port 0x60: every IN blocks the vCPU thread on the host
// input stream until one byte is available, then zero-extends it
// (spec.md §4.3). A real scancode queue is deliberately not modeled
// (spec.md §9 flags this as an open ambiguity the source just blocks on).
//
// Grounded on the legacy-PC device bank's keyboard device; it takes no
// lock, and the actual byte source here is an io.Reader instead of a
// pre-populated buffer, so the caller can wire host stdin (raw/cbreak mode
// via golang.org/x/term) or a test fixture.
type Keyboard struct {
	Source io.Reader
}

// ReadByte performs the blocking single-byte read. Any read error is
// surfaced to the caller, which per spec.md §4.3/§7 turns into a failure
// HRESULT from the IO callback and, by way of the emulator reporting
// instruction-incomplete, a terminated run loop.
func (k *Keyboard) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(k.Source, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
