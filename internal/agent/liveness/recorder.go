package liveness

import (
	"bytes"
	"context"

	"github.com/avigen/faceguard/internal/agent/capture"
	"github.com/avigen/faceguard/internal/logging"
)

// recorder accumulates frames into a single MJPEG payload: each frame is
// JPEG-encoded and appended. A frame that fails to encode is skipped; one
// bad frame must not abort the recording.
type recorder struct {
	log    logging.Logger
	buf    bytes.Buffer
	frames int
}

func newRecorder(log logging.Logger) *recorder {
	return &recorder{log: log}
}

func (r *recorder) add(f capture.Frame) {
	data, err := capture.EncodeJPEG(f)
	if err != nil {
		r.log.Warn(context.Background(), "skipping frame", "seq", f.Seq, "error", err)
		return
	}
	r.buf.Write(data)
	r.frames++
}

func (r *recorder) frameCount() int {
	return r.frames
}

func (r *recorder) bytes() []byte {
	return r.buf.Bytes()
}
