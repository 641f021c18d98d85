package devices_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boolingb/pc8088vm/machine/devices"
)

func TestKeyboardReadByteConsumesInOrder(t *testing.T) {
	kbd := &devices.Keyboard{Source: bytes.NewBufferString("hi")}

	b, err := kbd.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('h'), b)

	b, err = kbd.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('i'), b)
}

func TestKeyboardReadByteErrorsOnExhaustedSource(t *testing.T) {
	kbd := &devices.Keyboard{Source: bytes.NewBufferString("")}
	_, err := kbd.ReadByte()
	require.Error(t, err)
}

func TestPicCollapsesCommandAndDataOntoSameLatch(t *testing.T) {
	var p devices.PIC
	require.Equal(t, byte(0), p.ReadCmd())

	p.WriteCmd(0x55)
	require.Equal(t, byte(0x55), p.ReadData())

	p.WriteData(0xAA)
	require.Equal(t, byte(0xAA), p.ReadData())
	require.Equal(t, byte(0), p.ReadCmd(), "ReadCmd always returns 0")
}

func TestDmaChannelPortsAreIndependentLatches(t *testing.T) {
	var d devices.DMA
	d.Channels[0].Value = 0x11
	d.Channels[1].Value = 0x22
	require.Equal(t, byte(0x11), d.Channels[0].Value)
	require.Equal(t, byte(0x22), d.Channels[1].Value)
}
