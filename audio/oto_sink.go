//go:build !headless

package audio

import (
	"io"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

const sampleRate = 44100

// OtoSink synthesizes a square wave per Beep call and plays it through
// oto, grounded on IntuitionAmiga-IntuitionEngine's audio_backend_oto.go
// OtoPlayer: a single shared oto.Context, one-shot players per beep rather
// than a persistent streaming player, since the speaker gate only ever
// asks for discrete, non-overlapping beeps (spec.md §3 SpeakerGate: "a
// rising edge ... triggers an audible beep ... for 300 ms").
type OtoSink struct {
	ctx *oto.Context
}

func NewSink() (Sink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	return &OtoSink{ctx: ctx}, nil
}

// Beep renders a square wave at freqHz for dur and plays it without
// blocking the caller; the player is left to finish on its own.
func (s *OtoSink) Beep(freqHz float64, dur time.Duration) {
	if freqHz <= 0 || dur <= 0 {
		return
	}
	n := int(float64(sampleRate) * dur.Seconds())
	samples := make([]byte, n*4)
	period := sampleRate / freqHz
	for i := 0; i < n; i++ {
		phase := math.Mod(float64(i), period) / period
		v := float32(-0.3)
		if phase < 0.5 {
			v = 0.3
		}
		bits := math.Float32bits(v)
		samples[i*4+0] = byte(bits)
		samples[i*4+1] = byte(bits >> 8)
		samples[i*4+2] = byte(bits >> 16)
		samples[i*4+3] = byte(bits >> 24)
	}
	p := s.ctx.NewPlayer(&byteSliceReader{data: samples})
	p.Play()
}

func (s *OtoSink) Close() error { return nil }

// byteSliceReader adapts a pre-rendered sample buffer to io.Reader, what
// oto.Player wants as its source.
type byteSliceReader struct {
	data []byte
	pos  int
}

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
