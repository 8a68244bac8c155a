package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/logging"
)

const frameChanBuffer = 10

// GstSource captures from a local camera through GStreamer:
//
//	v4l2src → videoconvert → videoscale → videorate → capsfilter → appsink
//
// Frames are pulled in the appsink callback, copied out of the GStreamer
// buffer, and sent to the frame channel non-blocking (dropped if full).
type GstSource struct {
	device string
	width  int
	height int
	fps    int
	log    logging.Logger

	mu       sync.Mutex
	pipeline *gst.Pipeline
	frames   chan Frame
	opened   bool

	frameCount    uint64
	framesDropped uint64

	// lastFrame holds the most recent frame for Snapshot.
	lastMu    sync.Mutex
	lastFrame *Frame

	framesClosed atomic.Bool
}

// GstConfig configures a GstSource. Zero values fall back to 640x480 @ 15fps
// on /dev/video0.
type GstConfig struct {
	Device string
	Width  int
	Height int
	FPS    int
}

func NewGstSource(cfg GstConfig, log logging.Logger) *GstSource {
	if cfg.Device == "" {
		cfg.Device = "/dev/video0"
	}
	if cfg.Width == 0 {
		cfg.Width = 640
	}
	if cfg.Height == 0 {
		cfg.Height = 480
	}
	if cfg.FPS == 0 {
		cfg.FPS = 15
	}
	return &GstSource{
		device: cfg.Device,
		width:  cfg.Width,
		height: cfg.Height,
		fps:    cfg.FPS,
		log:    log.With("component", "capture", "device", cfg.Device),
	}
}

func (s *GstSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return fmt.Errorf("%w: source already open", faceerr.ErrCameraUnavailable)
	}
	if !acquireDevice(s.device) {
		return fmt.Errorf("%w: device busy", faceerr.ErrCameraUnavailable)
	}

	pipeline, sink, err := s.buildPipeline()
	if err != nil {
		releaseDevice(s.device)
		return fmt.Errorf("%w: %v", faceerr.ErrCameraUnavailable, err)
	}

	s.frames = make(chan Frame, frameChanBuffer)
	s.framesClosed.Store(false)

	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: s.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		pipeline.SetState(gst.StateNull)
		releaseDevice(s.device)
		return fmt.Errorf("%w: start pipeline: %v", faceerr.ErrCameraUnavailable, err)
	}

	s.pipeline = pipeline
	s.opened = true
	s.log.Info(ctx, "camera opened", "resolution", fmt.Sprintf("%dx%d", s.width, s.height), "fps", s.fps)
	return nil
}

func (s *GstSource) buildPipeline() (*gst.Pipeline, *app.Sink, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, nil, fmt.Errorf("create pipeline: %w", err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return nil, nil, fmt.Errorf("create v4l2src: %w", err)
	}
	src.SetProperty("device", s.device)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, nil, fmt.Errorf("create videoconvert: %w", err)
	}

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, nil, fmt.Errorf("create videoscale: %w", err)
	}

	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return nil, nil, fmt.Errorf("create videorate: %w", err)
	}
	videorate.SetProperty("drop-only", true)
	videorate.SetProperty("skip-to-first", true)

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, nil, fmt.Errorf("create capsfilter: %w", err)
	}
	capsStr := fmt.Sprintf("video/x-raw,format=RGB,width=%d,height=%d,framerate=%d/1", s.width, s.height, s.fps)
	capsfilter.SetProperty("caps", gst.NewCapsFromString(capsStr))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, nil, fmt.Errorf("create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)
	appsink.SetProperty("max-buffers", 1)
	appsink.SetProperty("drop", true)

	pipeline.AddMany(src, converter, scaler, videorate, capsfilter, appsink.Element)

	if err := gst.ElementLinkMany(src, converter, scaler, videorate, capsfilter, appsink.Element); err != nil {
		return nil, nil, fmt.Errorf("link pipeline elements: %w", err)
	}

	return pipeline, appsink, nil
}

// onNewSample pulls the sample, copies the pixel data out of the GStreamer
// buffer (the buffer is reused), and publishes the frame. A single bad
// sample skips the frame rather than terminating the stream.
func (s *GstSource) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		return gst.FlowOK
	}

	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	frame := Frame{
		Seq:       atomic.AddUint64(&s.frameCount, 1),
		Timestamp: time.Now(),
		Width:     s.width,
		Height:    s.height,
		Data:      frameData,
	}

	s.lastMu.Lock()
	s.lastFrame = &frame
	s.lastMu.Unlock()

	if s.framesClosed.Load() {
		return gst.FlowOK
	}
	select {
	case s.frames <- frame:
	default:
		atomic.AddUint64(&s.framesDropped, 1)
	}
	return gst.FlowOK
}

func (s *GstSource) Frames() <-chan Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *GstSource) Snapshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if !s.opened {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: source not open", faceerr.ErrCaptureFailed)
	}
	s.mu.Unlock()

	// The first frame may still be in flight right after Open; wait briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.lastMu.Lock()
		frame := s.lastFrame
		s.lastMu.Unlock()

		if frame != nil {
			data, err := EncodeJPEG(*frame)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", faceerr.ErrCaptureFailed, err)
			}
			return data, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: stream produced no frame", faceerr.ErrCaptureFailed)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", faceerr.ErrCaptureFailed, ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (s *GstSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return nil
	}

	if err := s.pipeline.SetState(gst.StateNull); err != nil {
		s.log.Warn(context.Background(), "failed to stop pipeline", "error", err)
	}
	s.pipeline = nil

	if s.framesClosed.CompareAndSwap(false, true) {
		close(s.frames)
	}

	s.lastMu.Lock()
	s.lastFrame = nil
	s.lastMu.Unlock()

	s.opened = false
	releaseDevice(s.device)
	s.log.Info(context.Background(), "camera released")
	return nil
}
