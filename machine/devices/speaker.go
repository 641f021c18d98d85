package devices

import "time"

const speakerBeepDuration = 300 * time.Millisecond

// Beeper is the minimal audio sink the speaker gate drives. Defined here
// rather than imported from the audio package to keep devices free of a
// dependency on the presentation layer; the audio package's Sink satisfies
// this trivially.
type Beeper interface {
	Beep(freqHz float64, dur time.Duration)
}

// SpeakerGate models port 0x61 (SYS_CTRL) bits 0 and 1: PIT-gate-enable and
// speaker-data-enable. A rising edge on both bits together triggers one
// beep at the frequency implied by PIT channel 2's current reload value
// (spec.md §3 SpeakerGate, §4.3 port 0x61).
type SpeakerGate struct {
	value byte
	sink  Beeper
	pit   *PIT
}

func NewSpeakerGate(pit *PIT, sink Beeper) *SpeakerGate {
	return &SpeakerGate{pit: pit, sink: sink}
}

// Read returns the latched SYS_CTRL value.
func (s *SpeakerGate) Read() byte { return s.value }

// Write latches the new value and fires a beep when the low two bits go
// from not both set to both set, e.g. 0b00->0b11 or 0b01->0b11 (spec.md
// §3: "a rising edge on both-set triggers an audible beep").
func (s *SpeakerGate) Write(val byte) {
	prevGated := s.value&0x03 == 0x03
	nowGated := val&0x03 == 0x03
	s.value = val
	if !prevGated && nowGated && s.sink != nil {
		reload := s.pit.Channels[2].effectiveReload()
		freq := float64(PitFrequencyHz) / float64(reload)
		s.sink.Beep(freq, speakerBeepDuration)
	}
}
