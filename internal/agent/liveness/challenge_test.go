package liveness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avigen/faceguard/internal/agent/capture"
	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/logging"
)

// ---- test logger ----

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// ---- fakes ----

type fakeVerifier struct {
	mu       sync.Mutex
	calls    int
	lastReq  []Action
	lastClip []byte

	res Result
	err error
}

func (f *fakeVerifier) Verify(ctx context.Context, video []byte, required []Action) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastClip = video
	f.lastReq = append([]Action(nil), required...)
	return f.res, f.err
}

func (f *fakeVerifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testFrame(seq uint64) capture.Frame {
	const w, h = 8, 6
	data := make([]byte, w*h*3)
	for i := range data {
		data[i] = byte(seq)
	}
	return capture.Frame{Seq: seq, Timestamp: time.Now(), Width: w, Height: h, Data: data}
}

// feed pushes n frames and leaves the channel open.
func feed(t *testing.T, ch chan capture.Frame, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		ch <- testFrame(uint64(i))
	}
}

func newChallenge(t *testing.T, v Verifier, cfg Config) *Challenge {
	t.Helper()
	c, err := New(v, cfg, nopLogger{})
	require.NoError(t, err)
	return c
}

// ---- tests ----

func TestNew_Validation(t *testing.T) {
	v := &fakeVerifier{}

	_, err := New(v, Config{Duration: time.Second}, nopLogger{})
	require.Error(t, err)

	_, err = New(v, Config{Actions: []Action{ActionBlink}}, nopLogger{})
	require.Error(t, err)
}

func TestRun_Success(t *testing.T) {
	v := &fakeVerifier{res: Result{
		IsLive: true,
		// order differs and an extra action is present
		PerformedActions: []Action{ActionNod, ActionHeadRight, ActionBlink},
	}}
	c := newChallenge(t, v, Config{
		Actions:  []Action{ActionBlink, ActionHeadRight},
		Duration: time.Hour,
	})

	frames := make(chan capture.Frame, 16)
	feed(t, frames, 3)
	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Stop()
	}()

	video, err := c.Run(context.Background(), frames)
	require.NoError(t, err)
	assert.NotEmpty(t, video)
	assert.Equal(t, 1, v.callCount())
	assert.Equal(t, []Action{ActionBlink, ActionHeadRight}, v.lastReq)
}

func TestRun_MissingActions(t *testing.T) {
	v := &fakeVerifier{res: Result{
		IsLive:           true,
		PerformedActions: []Action{ActionHeadRight},
	}}
	c := newChallenge(t, v, Config{
		Actions:  []Action{ActionBlink, ActionHeadRight, ActionNod},
		Duration: time.Hour,
	})

	frames := make(chan capture.Frame, 16)
	feed(t, frames, 2)
	c.Stop()

	_, err := c.Run(context.Background(), frames)
	require.ErrorIs(t, err, faceerr.ErrLivenessRejected)

	var rejected *faceerr.LivenessRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, []string{"blink", "nod"}, rejected.Missing)
}

func TestRun_NotLive(t *testing.T) {
	v := &fakeVerifier{res: Result{
		IsLive:           false,
		PerformedActions: []Action{ActionBlink},
	}}
	c := newChallenge(t, v, Config{
		Actions:  []Action{ActionBlink},
		Duration: time.Hour,
	})

	frames := make(chan capture.Frame, 16)
	feed(t, frames, 1)
	c.Stop()

	_, err := c.Run(context.Background(), frames)
	require.ErrorIs(t, err, faceerr.ErrLivenessRejected)

	var rejected *faceerr.LivenessRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Empty(t, rejected.Missing)
}

func TestRun_VerifierError(t *testing.T) {
	v := &fakeVerifier{err: errors.New("boom")}
	c := newChallenge(t, v, Config{
		Actions:  []Action{ActionBlink},
		Duration: time.Hour,
	})

	frames := make(chan capture.Frame, 16)
	feed(t, frames, 1)
	c.Stop()

	_, err := c.Run(context.Background(), frames)
	require.ErrorIs(t, err, faceerr.ErrVerification)
	assert.NotErrorIs(t, err, faceerr.ErrLivenessRejected)
}

func TestRun_NoFrames(t *testing.T) {
	v := &fakeVerifier{}
	c := newChallenge(t, v, Config{
		Actions:  []Action{ActionBlink},
		Duration: time.Hour,
	})

	frames := make(chan capture.Frame)
	c.Stop()

	_, err := c.Run(context.Background(), frames)
	require.ErrorIs(t, err, faceerr.ErrNoRecordingData)
	assert.Equal(t, 0, v.callCount())
}

func TestRun_ContextCancelled(t *testing.T) {
	v := &fakeVerifier{}
	c := newChallenge(t, v, Config{
		Actions:  []Action{ActionBlink},
		Duration: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frames := make(chan capture.Frame)
	_, err := c.Run(ctx, frames)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, v.callCount())
}

func TestRun_StreamClosed(t *testing.T) {
	v := &fakeVerifier{res: Result{IsLive: true, PerformedActions: []Action{ActionBlink}}}
	c := newChallenge(t, v, Config{
		Actions:  []Action{ActionBlink},
		Duration: time.Hour,
	})

	frames := make(chan capture.Frame, 16)
	feed(t, frames, 2)
	close(frames)

	video, err := c.Run(context.Background(), frames)
	require.NoError(t, err)
	assert.NotEmpty(t, video)
}

func TestRun_ProgressMonotoneAndComplete(t *testing.T) {
	var mu sync.Mutex
	var seen []int

	v := &fakeVerifier{res: Result{IsLive: true, PerformedActions: []Action{ActionBlink, ActionNod}}}
	c := newChallenge(t, v, Config{
		Actions:          []Action{ActionBlink, ActionNod},
		Duration:         200 * time.Millisecond,
		ProgressInterval: 20 * time.Millisecond,
		OnProgress: func(p Progress) {
			mu.Lock()
			seen = append(seen, p.Percent)
			mu.Unlock()
		},
	})

	frames := make(chan capture.Frame, 64)
	feed(t, frames, 3)

	_, err := c.Run(context.Background(), frames)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, 0, seen[0])
	assert.Equal(t, 100, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	for _, p := range seen {
		assert.LessOrEqual(t, p, 100)
	}
}

func TestCurrentAction_Schedule(t *testing.T) {
	v := &fakeVerifier{}
	c := newChallenge(t, v, Config{
		Actions:  []Action{ActionBlink, ActionHeadLeft, ActionNod},
		Duration: time.Second,
	})

	tests := []struct {
		percent int
		want    Action
	}{
		{0, ActionBlink},
		{32, ActionBlink},
		{34, ActionHeadLeft},
		{65, ActionHeadLeft},
		{67, ActionNod},
		{100, ActionNod},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, c.currentAction(tc.percent), "percent %d", tc.percent)
	}
}

func TestMissingActions(t *testing.T) {
	tests := []struct {
		name      string
		required  []Action
		performed []Action
		want      []string
	}{
		{"all performed", []Action{ActionBlink, ActionNod}, []Action{ActionNod, ActionBlink}, nil},
		{"extras ignored", []Action{ActionBlink}, []Action{ActionBlink, ActionHeadLeft}, nil},
		{"one missing", []Action{ActionBlink, ActionNod}, []Action{ActionBlink}, []string{"nod"}},
		{"all missing", []Action{ActionBlink, ActionNod}, nil, []string{"blink", "nod"}},
		{"order preserved", []Action{ActionNod, ActionBlink}, nil, []string{"nod", "blink"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, missingActions(tc.required, tc.performed))
		})
	}
}

func TestRecorder_SkipsBadFrames(t *testing.T) {
	rec := newRecorder(nopLogger{})

	rec.add(testFrame(1))
	rec.add(capture.Frame{Seq: 2, Width: 8, Height: 6, Data: []byte{1, 2, 3}}) // truncated
	rec.add(testFrame(3))

	assert.Equal(t, 2, rec.frameCount())
	assert.NotEmpty(t, rec.bytes())
}
