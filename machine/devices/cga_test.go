package devices_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boolingb/pc8088vm/machine/devices"
)

func TestCgaPutCharAdvancesAndWraps(t *testing.T) {
	c := devices.NewCGA()
	c.PutChar('A')
	require.Equal(t, 1, c.Cursor())
	require.Equal(t, uint16(0x0700|'A'), c.Cell(0))

	c.PutChar('\r')
	require.Equal(t, 0, c.Cursor())

	c.PutChar('\n')
	require.Equal(t, devices.CgaCols, c.Cursor())
}

func TestCgaScrollsAndClampsCursorAtNineteenNinetyNine(t *testing.T) {
	c := devices.NewCGA()
	// Fill every cell so the next PutChar forces a scroll.
	for i := 0; i < devices.CgaCells; i++ {
		c.PutChar('X')
	}
	require.LessOrEqual(t, c.Cursor(), devices.CgaCells-1)

	c.PutChar('Y')
	require.LessOrEqual(t, c.Cursor(), devices.CgaCells-1)
}

func TestCgaResyncDetectsDirtyCellsAgainstShadow(t *testing.T) {
	c := devices.NewCGA()
	ram := make([]byte, devices.CgaCells*2)
	for i := range ram {
		ram[i] = byte(devices.CgaDefaultCell >> (8 * (i % 2)))
	}

	require.False(t, c.Resync(ram), "unchanged RAM must not report dirty")

	ram[0] = 'Z'
	require.True(t, c.Resync(ram))
	require.False(t, c.Resync(ram), "second resync of the same RAM is clean")
}
