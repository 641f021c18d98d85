//go:build !headless

package display

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// EbitenSink presents frames in an ebiten window, grounded on
// IntuitionAmiga-IntuitionEngine's video_backend_ebiten.go EbitenOutput:
// a mutex-guarded frame buffer written by the vCPU thread and read back by
// ebiten's Draw callback on its own goroutine.
type EbitenSink struct {
	mu    sync.Mutex
	frame []byte
	img   *ebiten.Image

	started bool
	runErr  chan error
}

// NewSink starts the ebiten event loop on its own goroutine and returns a
// Sink the vCPU driver can call Present on from the run loop thread.
func NewSink() (Sink, error) {
	s := &EbitenSink{
		img:    ebiten.NewImage(RasterW, RasterH),
		runErr: make(chan error, 1),
	}
	ebiten.SetWindowSize(RasterW*2, RasterH*2)
	ebiten.SetWindowTitle("pc8088vm")
	go func() {
		s.runErr <- ebiten.RunGame(s)
	}()
	return s, nil
}

func (s *EbitenSink) Present(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(frame) != RasterW*RasterH*4 {
		return fmt.Errorf("display: frame has %d bytes, want %d", len(frame), RasterW*RasterH*4)
	}
	s.frame = frame
	return nil
}

func (s *EbitenSink) Close() error { return nil }

// Update satisfies ebiten.Game; the core never drives input through this
// window, so there is nothing to poll.
func (s *EbitenSink) Update() error {
	select {
	case err := <-s.runErr:
		return err
	default:
		return nil
	}
}

// Draw blits the last-presented frame into the window image.
func (s *EbitenSink) Draw(screen *ebiten.Image) {
	s.mu.Lock()
	frame := s.frame
	s.mu.Unlock()
	if frame == nil {
		return
	}
	s.img.WritePixels(frame)
	screen.DrawImage(s.img, nil)
}

// Layout fixes the logical screen size to the CGA raster; ebiten scales it
// to the actual window size.
func (s *EbitenSink) Layout(outsideWidth, outsideHeight int) (int, int) {
	return RasterW, RasterH
}
