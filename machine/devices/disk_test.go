package devices_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boolingb/pc8088vm/machine/devices"
)

func TestDiskOffsetWrapsModuloFiveTwelve(t *testing.T) {
	var d devices.Disk
	// A full lap of 512 writes wraps the offset back to 0; reading the
	// same number of bytes afterward must reproduce what was just written,
	// in order, starting from byte 0.
	for i := 0; i < devices.DiskImageSize; i++ {
		d.WriteByte(byte(i))
	}
	for i := 0; i < devices.DiskImageSize; i++ {
		require.Equal(t, byte(i), d.ReadByte())
	}
}

func TestDiskRoundTripsThroughLoadImage(t *testing.T) {
	var d devices.Disk
	image := make([]byte, devices.DiskImageSize)
	for i := range image {
		image[i] = byte(i * 3)
	}
	d.LoadImage(image)

	for i := 0; i < devices.DiskImageSize; i++ {
		require.Equal(t, image[i], d.ReadByte())
	}
	// The read offset has also completed a lap; the next read wraps to 0.
	require.Equal(t, image[0], d.ReadByte())
}

func TestDiskMissingImageReadsZero(t *testing.T) {
	var d devices.Disk
	require.Equal(t, byte(0), d.ReadByte())
}

func TestUnknownPortTrackerTerminatesOnSecondConsecutiveAccess(t *testing.T) {
	var u devices.UnknownPortTracker
	require.NoError(t, u.Touch(0x1234))

	err := u.Touch(0x1234)
	require.Error(t, err)
	var repeated *devices.ErrUnknownPortRepeated
	require.ErrorAs(t, err, &repeated)
	require.Equal(t, uint16(0x1234), repeated.Port)
}

func TestUnknownPortTrackerResetsOnDifferentPort(t *testing.T) {
	var u devices.UnknownPortTracker
	require.NoError(t, u.Touch(0x1234))
	// A different port is a first occurrence, not a repeat.
	require.NoError(t, u.Touch(0x5678))
}
