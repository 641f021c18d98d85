package machine

import (
	"fmt"
	"log"
	"os"
)

// DefaultFirmware and DefaultProgram are the zero-argument CLI defaults
// (spec.md §6 CLI).
const (
	DefaultFirmware = "ami_8088_bios_31jan89.bin"
	DefaultProgram  = "hello.com"
	fallbackFirmwareStub = "ivt.fw"
	diskImagePath        = "disk.img"
)

// ResolveArgs implements spec.md §6's CLI argument contract: zero args use
// the defaults; one arg ending in .bin or .fw is firmware run with no
// program; one arg otherwise is a program run with the default firmware;
// two args are program then firmware.
func ResolveArgs(args []string) (program, firmware string) {
	switch len(args) {
	case 0:
		return DefaultProgram, DefaultFirmware
	case 1:
		if isFirmwarePath(args[0]) {
			return "", args[0]
		}
		return args[0], DefaultFirmware
	default:
		return args[0], args[1]
	}
}

func isFirmwarePath(path string) bool {
	n := len(path)
	return n >= 4 && (path[n-4:] == ".bin" || path[n-3:] == ".fw")
}

// LoadFirmware reads a firmware image into guest physical FirmwareBase,
// replicating it to fill the 64 KiB ROM shadow if it is smaller, and
// patches the reset vector when it is the bundled ivt.fw stub (spec.md
// §4.1, §6, §7: "if the firmware was the default AMI ROM, fall back to the
// bundled stub and patch the reset vector; otherwise abort").
func (vm *VM) LoadFirmware(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if path == DefaultFirmware {
			return vm.loadFirmwareFallback(err)
		}
		return fmt.Errorf("machine: load firmware %q: %w", path, err)
	}
	return vm.installFirmware(path, data)
}

func (vm *VM) loadFirmwareFallback(origErr error) error {
	data, err := os.ReadFile(fallbackFirmwareStub)
	if err != nil {
		return fmt.Errorf("machine: default firmware missing (%v) and fallback %q unavailable: %w", origErr, fallbackFirmwareStub, err)
	}
	return vm.installFirmware(fallbackFirmwareStub, data)
}

func (vm *VM) installFirmware(path string, data []byte) error {
	if err := vm.LoadProgram(FirmwareBase, data); err != nil {
		return fmt.Errorf("machine: firmware %q: %w", path, err)
	}
	if len(data) < FirmwareShadowSize {
		vm.MirrorFirmware(len(data))
	}
	if path == fallbackFirmwareStub {
		vm.PatchResetVector()
	}
	return nil
}

// LoadProgramFile reads a .COM-style program into guest physical
// ProgramBase (spec.md §6: "matching DOS .COM conventions"). A load
// failure here is fatal (spec.md §7).
func (vm *VM) LoadProgramFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("machine: load program %q: %w", path, err)
	}
	if err := vm.LoadProgram(ProgramBase, data); err != nil {
		return fmt.Errorf("machine: program %q: %w", path, err)
	}
	return nil
}

// LoadDiskImage supplies the first 512 bytes of the emulated disk from
// disk.img, if present. A missing disk image is non-fatal (spec.md §7:
// "disk reads then return zeros").
func (vm *VM) LoadDiskImage() {
	data, err := os.ReadFile(diskImagePath)
	if err != nil {
		log.Printf("machine: no disk image at %q, disk reads will return zeros", diskImagePath)
		return
	}
	vm.ports.Disk.LoadImage(data)
}
