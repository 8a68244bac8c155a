// Package capture owns camera access for the enrollment agent. A Source
// produces still snapshots and a live stream of frames; acquiring a device
// is exclusive and must be released on every exit path.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"
)

// Frame is a single decoded video frame in packed RGB format.
type Frame struct {
	// Seq is the monotonic sequence number.
	Seq uint64
	// Timestamp is when the frame was captured.
	Timestamp time.Time
	// Width in pixels.
	Width int
	// Height in pixels.
	Height int
	// Data contains the frame data (RGB, 3 bytes per pixel).
	Data []byte
}

// Source is an exclusively owned camera device.
//
// Implementations must guarantee:
//   - Open acquires the device; a second Open without Close fails with
//     faceerr.ErrCameraUnavailable.
//   - Frames returns a channel that stays open until Close.
//   - Close is idempotent and releases the device lock.
type Source interface {
	// Open acquires the device and starts the stream.
	Open(ctx context.Context) error

	// Frames returns the live frame stream. Frames are delivered with
	// drop-on-full semantics to keep latency low.
	Frames() <-chan Frame

	// Snapshot returns the most recent frame encoded as JPEG. It fails with
	// faceerr.ErrCaptureFailed when no frame has been produced yet.
	Snapshot(ctx context.Context) ([]byte, error)

	// Close stops the stream and releases the device. Safe to call twice.
	Close() error
}

// deviceLocks tracks which devices are held so that two sources in the same
// process cannot fight over one camera.
var (
	deviceMu    sync.Mutex
	deviceLocks = map[string]struct{}{}
)

func acquireDevice(device string) bool {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	if _, held := deviceLocks[device]; held {
		return false
	}
	deviceLocks[device] = struct{}{}
	return true
}

func releaseDevice(device string) {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	delete(deviceLocks, device)
}

// EncodeJPEG encodes a packed-RGB frame as JPEG.
func EncodeJPEG(f Frame) ([]byte, error) {
	if len(f.Data) != f.Width*f.Height*3 {
		return nil, fmt.Errorf("capture: frame data size %d does not match %dx%d RGB", len(f.Data), f.Width, f.Height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i < f.Width*f.Height; i++ {
		img.Pix[i*4+0] = f.Data[i*3+0]
		img.Pix[i*4+1] = f.Data[i*3+1]
		img.Pix[i*4+2] = f.Data[i*3+2]
		img.Pix[i*4+3] = 0xff
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("capture: jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}
