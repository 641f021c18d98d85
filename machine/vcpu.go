package machine

import (
	"log"
	"time"

	"github.com/boolingb/pc8088vm/display"
	"github.com/boolingb/pc8088vm/hypervisor"
	"github.com/boolingb/pc8088vm/machine/devices"
)

// blinkInterval is the conventional CGA attribute-blink rate (~3.75 Hz);
// spec.md §4.5 specifies the blink flag's effect but not the exact toggle
// period, so the standard CGA figure is used.
const blinkInterval = 267 * time.Millisecond

// VCPU drives the run loop: RunVirtualProcessor, classify the exit,
// service it, resync CGA (spec.md §4.2).
type VCPU struct {
	host     hypervisor.Host
	id       int
	emulator *Emulator
	memory   *GuestMemory
	cga      *devices.CGA
	sink     display.Sink
	start    time.Time
}

// NewVCPU assembles a driver for vCPU id, ready to Run once the VM's
// lifecycle setup (partition, memory, register bank) has completed. sink
// may be nil, in which case CGA resync still runs but presents nothing.
func NewVCPU(host hypervisor.Host, id int, emulator *Emulator, memory *GuestMemory, cga *devices.CGA, sink display.Sink) *VCPU {
	return &VCPU{host: host, id: id, emulator: emulator, memory: memory, cga: cga, sink: sink, start: time.Now()}
}

// Run executes until a fatal condition (spec.md §4.2): host run failure,
// an unclassified exit reason, or a fatal error surfaced by the emulator
// (second consecutive unknown port, keyboard read failure).
func (v *VCPU) Run() error {
	for {
		exit, err := v.host.RunVirtualProcessor(v.id)
		if err != nil {
			return err
		}

		switch exit.Reason {
		case hypervisor.ExitIOPortAccess:
			if err := v.emulator.IOPort(exit.IO); err != nil {
				// A fatal dispatcher error (second consecutive unknown
				// port, keyboard I/O failure) ends the loop.
				return err
			}
		case hypervisor.ExitHalt:
			// HLT is a deliberate no-op (spec.md §4.2): BIOS busy-loops
			// progress without an interrupt controller ever firing.
		case hypervisor.ExitShutdown:
			return nil
		default:
			log.Print(&hypervisor.ErrUnclassifiedExit{Reason: exit.Reason, HardwareReason: exit.HardwareReason})
			return nil
		}

		if err := v.resyncCGA(); err != nil {
			log.Printf("machine: CGA present failed: %v", err)
		}
	}
}

// resyncCGA compares guest RAM at 0xB8000 against the device-side shadow
// and presents a frame only if something changed (spec.md §4.2 step 3).
func (v *VCPU) resyncCGA() error {
	dirty := v.cga.Resync(v.memory.CgaWindow())
	if !dirty || v.sink == nil {
		return nil
	}
	blinkOn := (time.Since(v.start) / blinkInterval) % 2 == 0
	frame := display.Render(v.cga.Snapshot(), blinkOn)
	return v.sink.Present(frame)
}
