package devices_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boolingb/pc8088vm/machine/devices"
)

func TestPitReloadZeroMeansSixtyFiveThousandFiveHundredThirtySix(t *testing.T) {
	pit := devices.NewPIT()
	pit.WriteControl(0b00_11_011_0) // channel 0, access LoHi, mode 3
	pit.WriteCounter(0, 0x00)
	pit.WriteCounter(0, 0x00)

	// One tick should decrement from the 65536 (stored-0) convention, not
	// wrap instantly to 65535 -> 0.
	pit.Advance(1.0 / devices.PitFrequencyHz)
	b := pit.ReadCounter(0)
	require.Equal(t, byte(0xFF), b, "low byte after a single tick from 65536")
}

func TestPitLoByteWritePreservesReloadHighByte(t *testing.T) {
	pit := devices.NewPIT()
	pit.WriteControl(0b00_11_011_0) // LoHi
	pit.WriteCounter(0, 0x34)
	pit.WriteCounter(0, 0x12) // reload = 0x1234

	pit.WriteControl(0b00_01_011_0) // switch to LoByte access
	pit.WriteCounter(0, 0xAA)       // spec.md §9: high byte of reload must survive

	pit.WriteControl(0b00_10_011_0) // HiByte access to read it back
	hi := pit.ReadCounter(0)
	require.Equal(t, byte(0x12), hi, "LoByte write must not clear the existing reload high byte")
}

func TestPitLatchFreezesReadUntilBothHalvesRead(t *testing.T) {
	pit := devices.NewPIT()
	pit.WriteControl(0b00_11_011_0)
	pit.WriteCounter(0, 0x00)
	pit.WriteCounter(0, 0x10) // reload = 0x1000

	pit.WriteControl(0b00_00_000_0) // latch channel 0
	pit.Advance(100.0)              // let the live counter move, latch should not

	lo := pit.ReadCounter(0)
	hi := pit.ReadCounter(0)
	require.Equal(t, uint16(0x1000), uint16(hi)<<8|uint16(lo))
}

func TestCrtcIndexMaskedToFiveBits(t *testing.T) {
	c := &devices.CRTC{}
	c.WriteIndex(0xFF)
	require.Equal(t, uint8(0x1F), c.ReadIndex())
}
