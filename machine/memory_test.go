package machine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boolingb/pc8088vm/machine"
)

func TestGuestMemoryMirrorInvariant(t *testing.T) {
	mem := machine.NewGuestMemory()

	mem.WriteAt(0x1234, []byte{0xDE, 0xAD})
	buf := make([]byte, 2)
	mem.ReadAt(machine.MirrorBase+0x1234, buf)
	require.Equal(t, []byte{0xDE, 0xAD}, buf, "a write at 0 must be visible through the mirror window")

	mem.WriteAt(machine.MirrorBase+0x5678, []byte{0xBE, 0xEF})
	mem.ReadAt(0x5678, buf)
	require.Equal(t, []byte{0xBE, 0xEF}, buf, "a write through the mirror must be visible at the base window")
}

func TestLoadProgramRejectsOverrun(t *testing.T) {
	mem := machine.NewGuestMemory()
	big := make([]byte, machine.GuestMemorySize)
	err := mem.LoadProgram(1, big)
	require.Error(t, err)
}

func TestPatchResetVectorWritesFarJumpToF0000Zero(t *testing.T) {
	mem := machine.NewGuestMemory()
	mem.PatchResetVector()
	buf := make([]byte, 5)
	mem.ReadAt(0xFFFF0, buf)
	require.Equal(t, []byte{0xEA, 0x00, 0x00, 0x00, 0xF0}, buf)
}

func TestMirrorRegionReplicatesAcrossWindow(t *testing.T) {
	mem := machine.NewGuestMemory()
	mem.WriteAt(0xF0000, []byte{0x11, 0x22, 0x33, 0x44})
	mem.MirrorRegion(0xF0000, 4, 16)

	buf := make([]byte, 16)
	mem.ReadAt(0xF0000, buf)
	require.Equal(t, []byte{
		0x11, 0x22, 0x33, 0x44,
		0x11, 0x22, 0x33, 0x44,
		0x11, 0x22, 0x33, 0x44,
		0x11, 0x22, 0x33, 0x44,
	}, buf)
}
