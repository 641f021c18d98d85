// Package audio implements the PC speaker beeper: a square wave at a
// given frequency for a fixed duration (spec.md §1 lists "the audio
// synthesis" as an external collaborator, boundary-specified only). Sink
// is what machine/devices.SpeakerGate drives.
package audio

import "time"

// Sink plays one beep. Implementations must not block the caller for the
// full duration: the vCPU run loop calls Beep synchronously from the port
// dispatcher and must not stall on audio playback.
type Sink interface {
	Beep(freqHz float64, dur time.Duration)
	Close() error
}
