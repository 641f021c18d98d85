package devices_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/boolingb/pc8088vm/machine/devices"
)

type recordingBeeper struct {
	calls int
	freq  float64
	dur   time.Duration
}

func (r *recordingBeeper) Beep(freqHz float64, dur time.Duration) {
	r.calls++
	r.freq = freqHz
	r.dur = dur
}

func TestSpeakerGateBeepsOnlyOnRisingEdge(t *testing.T) {
	pit := devices.NewPIT()
	pit.WriteControl(0b10_11_011_0) // channel 2, LoHi access
	pit.WriteCounter(2, 0x00)
	pit.WriteCounter(2, 0x04) // reload = 0x0400 = 1024

	rec := &recordingBeeper{}
	gate := devices.NewSpeakerGate(pit, rec)

	gate.Write(0x00)
	require.Equal(t, 0, rec.calls, "no edge yet")

	gate.Write(0x03) // both bits set: rising edge
	require.Equal(t, 1, rec.calls)
	require.InDelta(t, float64(devices.PitFrequencyHz)/1024.0, rec.freq, 0.001)

	gate.Write(0x03) // already set: no new edge
	require.Equal(t, 1, rec.calls)

	gate.Write(0x00)
	gate.Write(0x03) // a fresh rising edge
	require.Equal(t, 2, rec.calls)
}

func TestSpeakerGateReadReturnsLatchedValue(t *testing.T) {
	gate := devices.NewSpeakerGate(devices.NewPIT(), nil)
	gate.Write(0x42)
	require.Equal(t, byte(0x42), gate.Read())
}
