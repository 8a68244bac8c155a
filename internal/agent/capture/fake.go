package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avigen/faceguard/internal/faceerr"
)

// FakeSource generates synthetic frames on a ticker. It backs the agent's
// -fake-camera mode for camera-less environments and is also used by tests.
type FakeSource struct {
	device   string
	width    int
	height   int
	interval time.Duration

	mu     sync.Mutex
	opened bool
	frames chan Frame
	stop   chan struct{}
	wg     sync.WaitGroup
	seq    uint64
}

func NewFakeSource() *FakeSource {
	return &FakeSource{
		device:   "fake:0",
		width:    64,
		height:   48,
		interval: 50 * time.Millisecond,
	}
}

func (s *FakeSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return fmt.Errorf("%w: source already open", faceerr.ErrCameraUnavailable)
	}
	if !acquireDevice(s.device) {
		return fmt.Errorf("%w: device busy", faceerr.ErrCameraUnavailable)
	}

	s.frames = make(chan Frame, frameChanBuffer)
	s.stop = make(chan struct{})

	s.wg.Add(1)
	go s.generate()

	s.opened = true
	return nil
}

func (s *FakeSource) generate() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.seq++
			frame := s.makeFrame(s.seq)
			s.mu.Unlock()
			select {
			case s.frames <- frame:
			default:
			}
		}
	}
}

// makeFrame paints a flat shade that shifts with the sequence number, so
// consecutive frames differ deterministically.
func (s *FakeSource) makeFrame(seq uint64) Frame {
	data := make([]byte, s.width*s.height*3)
	shade := byte(seq % 251)
	for i := range data {
		data[i] = shade
	}
	return Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     s.width,
		Height:    s.height,
		Data:      data,
	}
}

func (s *FakeSource) Frames() <-chan Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *FakeSource) Snapshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if !s.opened {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: source not open", faceerr.ErrCaptureFailed)
	}
	s.seq++
	frame := s.makeFrame(s.seq)
	s.mu.Unlock()

	data, err := EncodeJPEG(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", faceerr.ErrCaptureFailed, err)
	}
	return data, nil
}

func (s *FakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return nil
	}

	close(s.stop)
	s.mu.Unlock()
	s.wg.Wait()
	s.mu.Lock()

	close(s.frames)
	s.opened = false
	releaseDevice(s.device)
	return nil
}
