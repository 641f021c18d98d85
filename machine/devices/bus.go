// Package devices models the bank of legacy-PC peripherals the port
// dispatcher (machine.Dispatcher) demultiplexes IN/OUT accesses to: the PIT,
// the CGA/MDA text and CRTC model, the PIC/DMA/FDC register stubs, the
// keyboard, and the emulated disk image.
//
// Device mirrors the legacy-PC device-bank convention of a per-device
// Device interface, and PIT/PIC/Keyboard keep the same byte-at-a-time
// access style; no device takes a lock, since the dispatcher drives them
// all from the single vCPU thread. machine.Dispatcher registers every
// plain-latch register (DMA, FDC, CRTC mode/attribute bytes, and the
// parallel/serial/game-port stubs) on a port-to-Device table built from
// LatchedByte below, rather than poking .Value directly.
package devices

// Device is the per-port behavior contract every device in this package
// implements. Unless documented otherwise, IN returns the latched byte
// zero-extended and OUT stores the low byte (spec.md §4.3).
type Device interface {
	In(port uint16, size uint8) (uint32, error)
	Out(port uint16, size uint8, data uint32) error
}

// LatchedByte is the simplest Device: a single byte register that OUT
// stores and IN returns, used for the device-register stubs spec.md §3
// lists as plain latches (DMA channel bytes, CRTC mode and attribute
// bytes, FDC DOR/status/data, parallel/serial/game-port stubs). The PIC
// IMRs are held by PIC itself.
type LatchedByte struct {
	Value byte
}

func (l *LatchedByte) In(port uint16, size uint8) (uint32, error) {
	return uint32(l.Value), nil
}

func (l *LatchedByte) Out(port uint16, size uint8, data uint32) error {
	l.Value = byte(data)
	return nil
}
