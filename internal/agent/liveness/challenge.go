// Package liveness implements the timed action challenge: it records the
// active camera stream for a fixed duration, reports progress, and asks an
// external verifier whether the subject is live and performed every
// required action.
package liveness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avigen/faceguard/internal/agent/capture"
	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/logging"
)

// Action is one required physical action, e.g. "blink".
type Action string

const (
	ActionBlink     Action = "blink"
	ActionHeadLeft  Action = "turn_head_left"
	ActionHeadRight Action = "turn_head_right"
	ActionNod       Action = "nod"
)

// Result is the verifier's verdict on a recorded challenge.
type Result struct {
	IsLive           bool
	PerformedActions []Action
}

// Verifier is the external liveness capability.
type Verifier interface {
	Verify(ctx context.Context, video []byte, required []Action) (Result, error)
}

// Progress is a UI instruction: how far the recording has come and which
// action the subject is currently asked to perform. Percent is in [0,100]
// and never decreases.
type Progress struct {
	Percent int
	Current Action
}

// Config configures a challenge run.
type Config struct {
	// Actions is the ordered schedule of required actions. Order only
	// affects which action is requested when; the verifier's superset check
	// is order-independent.
	Actions []Action

	// Duration is the total recording time.
	Duration time.Duration

	// ProgressInterval is how often OnProgress fires. Defaults to 250ms.
	ProgressInterval time.Duration

	// OnProgress, when set, receives progress updates during recording.
	OnProgress func(Progress)
}

// Challenge runs one liveness recording. A Challenge is single-use.
type Challenge struct {
	cfg      Config
	verifier Verifier
	log      logging.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(verifier Verifier, cfg Config, log logging.Logger) (*Challenge, error) {
	if len(cfg.Actions) == 0 {
		return nil, errors.New("liveness: at least one action required")
	}
	if cfg.Duration <= 0 {
		return nil, errors.New("liveness: duration must be positive")
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 250 * time.Millisecond
	}
	return &Challenge{
		cfg:      cfg,
		verifier: verifier,
		log:      log.With("component", "liveness"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Stop ends the recording early. Safe to call multiple times and from any
// goroutine; the run finalizes whatever was recorded so far.
func (c *Challenge) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Run records frames until the duration elapses, Stop is called, the frame
// stream closes, or ctx is cancelled. It then finalizes the recording and
// calls the verifier. The duration timer and the progress ticker always stop
// before Run returns, on every exit path.
func (c *Challenge) Run(ctx context.Context, frames <-chan capture.Frame) ([]byte, error) {
	start := time.Now()

	timer := time.NewTimer(c.cfg.Duration)
	defer timer.Stop()
	ticker := time.NewTicker(c.cfg.ProgressInterval)
	defer ticker.Stop()

	rec := newRecorder(c.log)
	lastPercent := -1
	elapsedAll := false

	c.emitProgress(0, &lastPercent)

recording:
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.stopCh:
			break recording
		case <-timer.C:
			elapsedAll = true
			break recording
		case f, ok := <-frames:
			if !ok {
				break recording
			}
			rec.add(f)
		case <-ticker.C:
			pct := c.percentAt(time.Since(start))
			c.emitProgress(pct, &lastPercent)
		}
	}

	if elapsedAll {
		c.emitProgress(100, &lastPercent)
	}

	video := rec.bytes()
	if len(video) == 0 {
		return nil, faceerr.ErrNoRecordingData
	}

	c.log.Debug(ctx, "recording finalized", "bytes", len(video), "frames", rec.frameCount())

	res, err := c.verifier.Verify(ctx, video, c.cfg.Actions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", faceerr.ErrVerification, err)
	}

	missing := missingActions(c.cfg.Actions, res.PerformedActions)
	if !res.IsLive || len(missing) > 0 {
		return nil, &faceerr.LivenessRejectedError{Missing: missing}
	}

	return video, nil
}

func (c *Challenge) percentAt(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	pct := int(elapsed * 100 / c.cfg.Duration)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// currentAction returns the action requested at the given progress: the
// schedule is divided evenly over the total duration.
func (c *Challenge) currentAction(percent int) Action {
	idx := percent * len(c.cfg.Actions) / 100
	if idx >= len(c.cfg.Actions) {
		idx = len(c.cfg.Actions) - 1
	}
	return c.cfg.Actions[idx]
}

// emitProgress fires OnProgress, keeping the reported percentage monotone.
func (c *Challenge) emitProgress(percent int, lastPercent *int) {
	if percent < *lastPercent {
		percent = *lastPercent
	}
	*lastPercent = percent
	if c.cfg.OnProgress != nil {
		c.cfg.OnProgress(Progress{Percent: percent, Current: c.currentAction(percent)})
	}
}

// missingActions returns required − performed, preserving the order of the
// required schedule. Extra performed actions are ignored.
func missingActions(required, performed []Action) []string {
	done := make(map[Action]struct{}, len(performed))
	for _, a := range performed {
		done[a] = struct{}{}
	}
	var missing []string
	for _, a := range required {
		if _, ok := done[a]; !ok {
			missing = append(missing, string(a))
		}
	}
	return missing
}
