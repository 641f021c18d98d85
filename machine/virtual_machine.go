package machine

import (
	"fmt"
	"io"

	"github.com/boolingb/pc8088vm/audio"
	"github.com/boolingb/pc8088vm/display"
	"github.com/boolingb/pc8088vm/hypervisor"
	"github.com/boolingb/pc8088vm/machine/devices"
)

// FirmwareBase is where firmware is loaded and replicated to fill the ROM
// shadow (spec.md §6 Files).
const FirmwareBase = 0xF0000

// FirmwareShadowSize is the size of the 0xF0000-0xFFFFF ROM shadow window.
const FirmwareShadowSize = 0x10000

// ProgramBase is where a .COM-style program is loaded: CS:0100 with
// CS=0x1000 (spec.md §6 Files).
const ProgramBase = 0x10100

// VM owns the guest memory, device bank and vCPU driver for one machine
// instance (spec.md §4.1 VM Lifecycle).
type VM struct {
	host     hypervisor.Host
	memory   *GuestMemory
	ports    *Dispatcher
	cga      *devices.CGA
	emulator *Emulator
	vcpu     *VCPU
}

// Config bundles the optional collaborators create() wires in: an input
// source for the keyboard port, presentation sinks, and a port logger.
type Config struct {
	KeyboardSource io.Reader
	DisplaySink    display.Sink
	AudioSink      audio.Sink
	PortLogger     PortLogger
}

// Create performs spec.md §4.1's create(): request a partition, set
// processor count to 1, finalize partition setup, create vCPU 0, load the
// initial register bank (InitialRegisterBank), allocate memory and map it twice (at 0
// and at its own size, forming the high mirror).
func Create(host hypervisor.Host, cfg Config) (*VM, error) {
	if err := host.CreatePartition(); err != nil {
		return nil, fmt.Errorf("machine: create partition: %w", err)
	}
	if err := host.SetProcessorCount(1); err != nil {
		return nil, fmt.Errorf("machine: set processor count: %w", err)
	}
	if err := host.SetupPartition(); err != nil {
		return nil, fmt.Errorf("machine: setup partition: %w", err)
	}
	const vcpuID = 0
	if err := host.CreateVirtualProcessor(vcpuID); err != nil {
		return nil, fmt.Errorf("machine: create vcpu: %w", err)
	}

	names, values := InitialRegisterBank()
	if err := host.SetRegisters(vcpuID, names, values); err != nil {
		return nil, fmt.Errorf("machine: load initial register bank: %w", err)
	}

	memory := NewGuestMemory()
	if err := host.MapGuestMemory(memory.Bytes(), 0, hypervisor.MapRead|hypervisor.MapWrite|hypervisor.MapExecute); err != nil {
		return nil, fmt.Errorf("machine: map guest memory at 0: %w", err)
	}
	if err := host.MapGuestMemory(memory.Bytes(), MirrorBase, hypervisor.MapRead|hypervisor.MapWrite|hypervisor.MapExecute); err != nil {
		return nil, fmt.Errorf("machine: map guest memory mirror at 0x%x: %w", MirrorBase, err)
	}

	pit := devices.NewPIT()
	keyboard := &devices.Keyboard{Source: cfg.KeyboardSource}
	ports := NewDispatcher(pit, keyboard, cfg.AudioSink)
	ports.Logger = cfg.PortLogger

	cga := devices.NewCGA()
	emulator := NewEmulator(host, vcpuID, memory, ports)
	vcpu := NewVCPU(host, vcpuID, emulator, memory, cga, cfg.DisplaySink)

	return &VM{host: host, memory: memory, ports: ports, cga: cga, emulator: emulator, vcpu: vcpu}, nil
}

// LoadProgram implements spec.md §4.1 load_program: read the file into
// guest memory at offset, failing if it would overrun the address space.
func (vm *VM) LoadProgram(offset uint64, image []byte) error {
	return vm.memory.LoadProgram(offset, image)
}

// PatchResetVector implements spec.md §4.1 patch_reset_vector: used only
// when the loaded firmware is the bundled ivt.fw stub.
func (vm *VM) PatchResetVector() {
	vm.memory.PatchResetVector()
}

// MirrorFirmware implements spec.md §4.1 mirror_region, replicating
// firmware smaller than the 64 KiB ROM shadow to fill it.
func (vm *VM) MirrorFirmware(firmwareSize int) {
	vm.memory.MirrorRegion(FirmwareBase, firmwareSize, FirmwareShadowSize)
}

// Memory exposes the guest memory for the loader.
func (vm *VM) Memory() *GuestMemory { return vm.memory }

// CGA exposes the CGA device, for a final-state dump after Run returns.
func (vm *VM) CGA() *devices.CGA { return vm.cga }

// Run executes the vCPU driver loop until a fatal condition (spec.md §4.2).
func (vm *VM) Run() error {
	return vm.vcpu.Run()
}

// Destroy releases the partition (spec.md §4.1 destroy).
func (vm *VM) Destroy() error {
	return vm.host.DeletePartition()
}
