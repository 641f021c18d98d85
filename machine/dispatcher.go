package machine

import (
	"fmt"
	"log"
	"time"

	"github.com/boolingb/pc8088vm/hypervisor"
	"github.com/boolingb/pc8088vm/machine/devices"
)

// ramKB is the conventional-memory size SYS_PORTC reports against (spec.md
// §4.3: "640 KiB conventional RAM").
const ramKB = 640

// sysPortCNibble is (RAM_KB-64)/32, spec.md §4.3's port-0x62 formula.
const sysPortCNibble = (ramKB - 64) / 32

// retraceInterval is how often CGA status bit 3 (vertical retrace) flips
// while polled (spec.md §4.5).
const retraceInterval = 16 * time.Millisecond

// PortLogger records every port access, the external collaborator spec.md
// §1 calls the port-log file: an optional sink, nil by default.
type PortLogger interface {
	Log(dir hypervisor.IODirection, port uint16, size uint8, data uint32)
}

// Dispatcher demultiplexes port I/O by port number (spec.md §4.3): the
// legacy-PC device bank lives here, along with the PIT wall-clock advance
// that runs before every dispatch and the unknown-port tracker that can
// terminate the process.
type Dispatcher struct {
	DMA       devices.DMA
	PICMaster devices.PIC
	PICSlave  devices.PIC
	PIT       *devices.PIT
	Keyboard  *devices.Keyboard
	SysCtrl   *devices.SpeakerGate
	MDACrtc   devices.CRTC
	CGACrtc   devices.CRTC
	MDAMode   devices.LatchedByte
	CGAMode   devices.LatchedByte
	MDAAttr   devices.LatchedByte
	CGAAttr   devices.LatchedByte
	FDC       devices.FDC
	Disk      devices.Disk
	unknown   devices.UnknownPortTracker

	// bus registers every plain-latch port (DMA, FDC, CRTC mode/attribute
	// bytes, and the parallel/serial/game-port stubs) against the
	// devices.Device interface, so those ports are serviced through
	// Device.In/Out rather than field access.
	bus map[uint16]devices.Device

	Logger PortLogger

	lastPITUpdate time.Time
	retraceStart  time.Time
}

// stubPorts is the set of parallel/serial/game-port latches and the
// unmodeled 0x0213 stub (spec.md §4.3).
var stubPorts = []uint16{0x0201, 0x0210, 0x0278, 0x02FA, 0x0378, 0x03BC, 0x03FA, 0x0213}

// NewDispatcher wires a fresh device bank. sink receives speaker beeps; a
// nil sink is valid (the speaker gate then just tracks its latch).
func NewDispatcher(pit *devices.PIT, keyboard *devices.Keyboard, sink devices.Beeper) *Dispatcher {
	now := time.Now()
	d := &Dispatcher{
		PIT:           pit,
		Keyboard:      keyboard,
		SysCtrl:       devices.NewSpeakerGate(pit, sink),
		lastPITUpdate: now,
		retraceStart:  now,
	}

	d.bus = make(map[uint16]devices.Device)
	for i := range d.DMA.Channels {
		d.bus[uint16(i)] = &d.DMA.Channels[i]
	}
	d.bus[0x0A] = &d.DMA.Mask
	d.bus[0x0B] = &d.DMA.Mode
	d.bus[0x0C] = &d.DMA.Clear
	d.bus[0x0D] = &d.DMA.Temp
	d.bus[0x81] = &d.DMA.Page1
	d.bus[0x03B8] = &d.MDAMode
	d.bus[0x03B9] = &d.MDAAttr
	d.bus[0x03D8] = &d.CGAMode
	d.bus[0x03D9] = &d.CGAAttr
	d.bus[0x03F2] = &d.FDC.DOR
	d.bus[0x03F4] = &d.FDC.Status
	d.bus[0x03F5] = &d.FDC.Data
	for _, p := range stubPorts {
		d.bus[p] = &devices.LatchedByte{}
	}
	return d
}

// advancePIT runs the lazy wall-clock PIT update that precedes every
// dispatch (spec.md §4.3 "Before every dispatch it advances the PIT
// model").
func (d *Dispatcher) advancePIT() {
	now := time.Now()
	elapsed := now.Sub(d.lastPITUpdate).Seconds()
	d.lastPITUpdate = now
	d.PIT.Advance(elapsed)
}

// retraceBit computes CGA status bit 3, which flips every 16ms of wall
// time since the dispatcher was created (spec.md §4.5).
func (d *Dispatcher) retraceBit() byte {
	halves := time.Since(d.retraceStart) / retraceInterval
	if halves%2 == 1 {
		return 1 << 3
	}
	return 0
}

// sysPortC implements port 0x62 (spec.md §4.3 "Port 0x62 (SYS_PORTC)
// behavior").
func (d *Dispatcher) sysPortC() byte {
	ctrl := d.SysCtrl.Read()
	var out byte
	if ctrl&0x04 != 0 {
		out = sysPortCNibble & 0x0F
	} else {
		out = (sysPortCNibble >> 4) & 0x0F
	}
	if ctrl&0x02 != 0 {
		out |= 0x20
	}
	return out
}

// In services a PIO read. It returns the (possibly zero-extended) value
// and an error only for a fatal condition: a second consecutive access to
// the same unrecognized port, or a failed keyboard read on port 0x60
// (spec.md §4.3, §7).
func (d *Dispatcher) In(port uint16, size uint8) (uint32, error) {
	d.advancePIT()
	val, err := d.in(port, size)
	if d.Logger != nil {
		d.Logger.Log(hypervisor.IODirectionIn, port, size, val)
	}
	return val, err
}

// Out services a PIO write, returning an error only on the same fatal
// unknown-port condition as In.
func (d *Dispatcher) Out(port uint16, size uint8, data uint32) error {
	d.advancePIT()
	if d.Logger != nil {
		d.Logger.Log(hypervisor.IODirectionOut, port, size, data)
	}
	return d.out(port, size, data)
}

func (d *Dispatcher) in(port uint16, size uint8) (uint32, error) {
	if dev, ok := d.bus[port]; ok {
		return dev.In(port, size)
	}
	switch {
	case port == 0x08:
		return 0, nil
	case port == 0x20 || port == 0xA0:
		return uint32(d.picFor(port).ReadCmd()), nil
	case port == 0x21 || port == 0xA1:
		return uint32(d.picFor(port).ReadData()), nil
	case port >= 0x40 && port <= 0x42:
		return uint32(d.PIT.ReadCounter(int(port - 0x40))), nil
	case port == 0x43:
		return 0, nil // control word is write-only
	case port == 0x60:
		b, err := d.Keyboard.ReadByte()
		if err != nil {
			return 0, err
		}
		return uint32(b), nil
	case port == 0x61:
		return uint32(d.SysCtrl.Read()), nil
	case port == 0x62:
		return uint32(d.sysPortC()), nil
	case port == 0x63:
		return 0, nil
	case port == 0x64:
		return 0, nil
	case port == 0x80:
		return 0, nil
	case port == 0x83:
		return 0, nil
	case port == 0xB8:
		return 0, nil
	case port == 0xFF:
		return uint32(d.Disk.ReadByte()), nil
	case port == 0x03B4:
		return uint32(d.crtcReadIndex(port)), nil
	case port == 0x03B5:
		return uint32(d.MDACrtc.ReadData()), nil
	case port == 0x03D4:
		return uint32(d.crtcReadIndex(port)), nil
	case port == 0x03D5:
		return uint32(d.CGACrtc.ReadData()), nil
	case port == 0x03DA:
		return uint32(d.retraceBit()), nil
	default:
		return d.handleUnknown(port)
	}
}

func (d *Dispatcher) out(port uint16, size uint8, data uint32) error {
	b := byte(data)
	if dev, ok := d.bus[port]; ok {
		return dev.Out(port, size, data)
	}
	switch {
	case port == 0x08:
	case port == 0x20 || port == 0xA0:
		d.picFor(port).WriteCmd(b)
	case port == 0x21 || port == 0xA1:
		d.picFor(port).WriteData(b)
	case port >= 0x40 && port <= 0x42:
		d.PIT.WriteCounter(int(port-0x40), b)
	case port == 0x43:
		d.PIT.WriteControl(b)
	case port == 0x60:
		// ignored: keyboard data port is read-only in this model
	case port == 0x61:
		d.SysCtrl.Write(b)
	case port == 0x62:
		// ignored: SYS_PORTC is read-only
	case port == 0x63:
	case port == 0x64:
	case port == 0x80:
	case port == 0x83:
	case port == 0xB8:
	case port == 0xFF:
		d.Disk.WriteByte(b)
	case port == 0x03B4:
		d.crtcWriteIndex(port, b)
	case port == 0x03B5:
		d.MDACrtc.WriteData(b)
	case port == 0x03D4:
		d.crtcWriteIndex(port, b)
	case port == 0x03D5:
		d.CGACrtc.WriteData(b)
	case port == 0x03DA:
		// status register accepts writes silently
	default:
		_, err := d.handleUnknown(port)
		return err
	}
	return nil
}

func (d *Dispatcher) picFor(port uint16) *devices.PIC {
	if port == 0x20 || port == 0x21 {
		return &d.PICMaster
	}
	return &d.PICSlave
}

// crtcFor resolves which CRTC a port targets: MDA ports 0x03B4/0x03B5, CGA
// ports 0x03D4/0x03D5. The attribute ports 0x03B9/0x03D9 are separate
// registers (see MDAAttr/CGAAttr) and never reach this helper.
func (d *Dispatcher) crtcFor(port uint16) *devices.CRTC {
	if port == 0x03B4 || port == 0x03B5 {
		return &d.MDACrtc
	}
	return &d.CGACrtc
}

func (d *Dispatcher) crtcReadIndex(port uint16) byte {
	return d.crtcFor(port).ReadIndex()
}

func (d *Dispatcher) crtcWriteIndex(port uint16, val byte) {
	d.crtcFor(port).WriteIndex(val)
}

// handleUnknown implements spec.md §4.3's unknown-port rule: a second
// consecutive access to the same unrecognized port is fatal; the first is
// logged and answered with a zero "not implemented" value.
func (d *Dispatcher) handleUnknown(port uint16) (uint32, error) {
	if err := d.unknown.Touch(port); err != nil {
		return 0, fmt.Errorf("machine: %w", err)
	}
	log.Printf("machine: unrecognized port 0x%04X accessed", port)
	return 0, nil
}
