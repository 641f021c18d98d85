//go:build headless

package audio

import (
	"log"
	"time"
)

// HeadlessSink just logs beeps, for CI and builds with the headless tag.
type HeadlessSink struct{}

func NewSink() (Sink, error) { return &HeadlessSink{}, nil }

func (s *HeadlessSink) Beep(freqHz float64, dur time.Duration) {
	log.Printf("audio: beep %.1fHz for %s (headless, not played)", freqHz, dur)
}

func (s *HeadlessSink) Close() error { return nil }
