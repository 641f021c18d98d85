//go:build headless

package display

import "log"

// HeadlessSink discards frames, logging only the first Present so a
// headless run (CI, a build with `-tags headless`) still confirms the CGA resync path is
// live without opening a window.
type HeadlessSink struct {
	announced bool
}

func NewSink() (Sink, error) {
	return &HeadlessSink{}, nil
}

func (s *HeadlessSink) Present(frame []byte) error {
	if !s.announced {
		log.Printf("display: headless sink active, %d-byte frames suppressed", len(frame))
		s.announced = true
	}
	return nil
}

func (s *HeadlessSink) Close() error { return nil }
