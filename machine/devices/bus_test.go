package devices_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boolingb/pc8088vm/machine/devices"
)

func TestLatchedByteStoresAndReturnsLastWrite(t *testing.T) {
	var l devices.LatchedByte

	v, err := l.In(0x0201, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0), v, "a fresh latch reads zero")

	require.NoError(t, l.Out(0x0201, 1, 0xAB))
	v, err = l.In(0x0201, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0xAB), v)
}

func TestLatchedByteOutTruncatesToLowByte(t *testing.T) {
	var l devices.LatchedByte
	require.NoError(t, l.Out(0x0201, 1, 0x1FF))
	require.Equal(t, byte(0xFF), l.Value)
}
