package machine_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boolingb/pc8088vm/machine"
	"github.com/boolingb/pc8088vm/machine/devices"
)

func newTestDispatcher(stdin string) *machine.Dispatcher {
	pit := devices.NewPIT()
	kbd := &devices.Keyboard{Source: bytes.NewBufferString(stdin)}
	return machine.NewDispatcher(pit, kbd, nil)
}

func TestDispatcherDmaLatchRoundTrips(t *testing.T) {
	d := newTestDispatcher("")
	require.NoError(t, d.Out(0x03, 1, 0x5A))
	v, err := d.In(0x03, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0x5A), v)
}

func TestDispatcherKeyboardPortReadsStdin(t *testing.T) {
	d := newTestDispatcher("Q")
	v, err := d.In(0x60, 1)
	require.NoError(t, err)
	require.Equal(t, uint32('Q'), v)
}

func TestDispatcherKeyboardReadFailurePropagates(t *testing.T) {
	d := newTestDispatcher("") // empty reader: ReadByte fails immediately
	_, err := d.In(0x60, 1)
	require.Error(t, err)
}

func TestDispatcherUnknownPortFirstAccessIsQuiet(t *testing.T) {
	d := newTestDispatcher("")
	v, err := d.In(0x9999, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0), v)
}

func TestDispatcherUnknownPortSecondConsecutiveAccessIsFatal(t *testing.T) {
	d := newTestDispatcher("")
	_, err := d.In(0x9999, 1)
	require.NoError(t, err)
	_, err = d.In(0x9999, 1)
	require.Error(t, err)
}

func TestDispatcherUnknownPortDifferentPortDoesNotCompound(t *testing.T) {
	d := newTestDispatcher("")
	_, err := d.In(0x9999, 1)
	require.NoError(t, err)
	_, err = d.In(0x8888, 1)
	require.NoError(t, err, "a different unrecognized port resets the tracker")
}

func TestDispatcherCrtcIndexAndDataPorts(t *testing.T) {
	d := newTestDispatcher("")
	require.NoError(t, d.Out(0x03D4, 1, 0x0A)) // select register 0x0A
	require.NoError(t, d.Out(0x03D5, 1, 0x7F)) // store into it
	v, err := d.In(0x03D5, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0x7F), v)
}

func TestDispatcherCrtcAttrPortDoesNotDisturbIndexLatch(t *testing.T) {
	d := newTestDispatcher("")
	require.NoError(t, d.Out(0x03D4, 1, 0x0A)) // select register 0x0A
	require.NoError(t, d.Out(0x03D5, 1, 0x7F)) // store into it

	// Writing the color-select/attribute port must not move the CRTC index:
	// a following data-port access should still hit register 0x0A.
	require.NoError(t, d.Out(0x03D9, 1, 0xFF))
	v, err := d.In(0x03D5, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0x7F), v, "attribute-port write must not corrupt the CRTC index")

	// The attribute latch keeps the value unmasked, unlike the index latch.
	attr, err := d.In(0x03D9, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0xFF), attr)
}

func TestDispatcherDmaMaskPortRoutesThroughDeviceInterface(t *testing.T) {
	d := newTestDispatcher("")
	require.NoError(t, d.Out(0x0A, 1, 0x99))
	v, err := d.In(0x0A, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0x99), v)
}

func TestDispatcherDiskPortRoundTrips(t *testing.T) {
	d := newTestDispatcher("")
	require.NoError(t, d.Out(0xFF, 1, 0x42))
	require.NoError(t, d.Out(0xFF, 1, 0x43))
	v, err := d.In(0xFF, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0x42), v)
}
