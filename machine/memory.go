// Package machine assembles the guest-facing virtual machine: guest
// physical memory, the initial register bank, the legacy-PC port dispatch
// table, and the vCPU driver loop that ties them to a hypervisor.Host.
package machine

import "fmt"

// GuestMemorySize is the size of the real-mode address space this machine
// backs: a full 1 MiB (spec.md §3 GuestMemory).
const GuestMemorySize = 1 << 20

// MirrorBase is the guest physical address at which the whole 1 MiB region
// is mirrored a second time (spec.md §3: "a mirror of the full region is
// also mapped starting at guest physical address 0x100000"). BIOS reset
// vectors living at the top of the first megabyte are reachable this way
// from addresses just above it too.
const MirrorBase = 0x100000

// GuestMemory is the backing store for a machine's single 1 MiB of RAM,
// exposed twice to the guest: once at 0 and once more at MirrorBase,
// wrapping via modulo so both windows observe the same bytes (spec.md §3,
// §8 mirror invariant).
type GuestMemory struct {
	ram [GuestMemorySize]byte
}

// NewGuestMemory returns a zeroed 1 MiB guest memory.
func NewGuestMemory() *GuestMemory {
	return &GuestMemory{}
}

// Bytes returns the backing slice, for mapping into the host (twice: at 0
// and at MirrorBase) via hypervisor.Host.MapGuestMemory.
func (g *GuestMemory) Bytes() []byte { return g.ram[:] }

// offset folds any guest physical address, including ones in the mirror
// window, back onto the single backing array (spec.md §8: "a write
// through either window is visible through the other").
func (g *GuestMemory) offset(gpa uint64) int {
	return int(gpa % GuestMemorySize)
}

// ReadAt copies len(dst) bytes starting at gpa into dst, wrapping through
// the mirror as necessary.
func (g *GuestMemory) ReadAt(gpa uint64, dst []byte) {
	for i := range dst {
		dst[i] = g.ram[g.offset(gpa+uint64(i))]
	}
}

// WriteAt copies src into guest memory starting at gpa, wrapping through
// the mirror as necessary.
func (g *GuestMemory) WriteAt(gpa uint64, src []byte) {
	for i, b := range src {
		g.ram[g.offset(gpa+uint64(i))] = b
	}
}

// LoadProgram copies a guest program image into memory starting at gpa. It
// fails if the image does not fit below the 1 MiB boundary (a mirror
// write-through is never the intended target for a load), matching
// spec.md §4.1 load_program.
func (g *GuestMemory) LoadProgram(gpa uint64, image []byte) error {
	if gpa+uint64(len(image)) > GuestMemorySize {
		return fmt.Errorf("machine: program of %d bytes at 0x%x overruns guest memory", len(image), gpa)
	}
	copy(g.ram[gpa:], image)
	return nil
}

// resetVectorAddr is the real-mode CPU's power-on CS:IP target.
const resetVectorAddr = 0xFFFF0

// PatchResetVector overwrites the reset vector with a far jump to F000:0000
// (spec.md §4.1 patch_reset_vector): used only when the loaded firmware is
// the bundled ivt.fw stub, which expects entry at F000:0000 rather than the
// usual F000:FFF0.
func (g *GuestMemory) PatchResetVector() {
	patch := [5]byte{0xEA, 0x00, 0x00, 0x00, 0xF0}
	g.WriteAt(resetVectorAddr, patch[:])
}

// MirrorRegion replicates the size bytes at offset throughout a total-byte
// window starting at offset (spec.md §4.1 mirror_region), used to fill the
// 0xF0000-0xFFFFF ROM shadow when loaded firmware is smaller than 64 KiB.
func (g *GuestMemory) MirrorRegion(offset uint64, size, total int) {
	if size <= 0 || total <= size {
		return
	}
	src := make([]byte, size)
	g.ReadAt(offset, src)
	for written := size; written < total; written += size {
		n := size
		if written+n > total {
			n = total - written
		}
		g.WriteAt(offset+uint64(written), src[:n])
	}
}

// CgaWindowBase is the guest physical address of the CGA text framebuffer
// (spec.md §4.5, GLOSSARY).
const CgaWindowBase = 0xB8000

// CgaWindowSize is 80*25 cells at 2 bytes/cell.
const CgaWindowSize = 80 * 25 * 2

// CgaWindow returns the live CGA framebuffer region for resync against the
// device model's shadow copy (spec.md §4.2 "CGA resync").
func (g *GuestMemory) CgaWindow() []byte {
	start := g.offset(CgaWindowBase)
	return g.ram[start : start+CgaWindowSize]
}
