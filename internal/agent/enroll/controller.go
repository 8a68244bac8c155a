// Package enroll orchestrates the enrollment pipeline: capture → liveness →
// extraction → upload → persistence, as one transaction-like sequence with
// abort-and-discard semantics on any failure.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/avigen/faceguard/internal/agent/capture"
	"github.com/avigen/faceguard/internal/agent/liveness"
	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/logging"
)

// Extractor is the external feature-extraction capability.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]float64, error)
}

// Uploader writes the still image to blob storage and returns its URL.
type Uploader interface {
	UploadFaceImage(ctx context.Context, id string, image []byte) (string, error)
}

// Persister writes the registration fields to the profile record.
type Persister interface {
	UpdateFace(ctx context.Context, id, imageURL string, features []float64) error
}

// Merger receives a successful enrollment to fold into the held profile.
type Merger interface {
	ApplyEnrollment(imageURL string, features []float64)
}

// Result is what a completed enrollment produced.
type Result struct {
	FaceImageURL   string
	FacialFeatures []float64
}

// Controller drives one enrollment attempt at a time.
//
// Valid transitions:
//
//	Idle → Capturing → Captured → LivenessPending → LivenessRecording →
//	LivenessEvaluating → Extracting → Uploading → Persisting → Done
//
// Any failure discards the session, releases the camera, and returns to
// Idle; re-running from Idle is always safe (idempotent overwrite).
// Persistence is the point of no return: cancellation is only available
// before it.
type Controller struct {
	source    capture.Source
	verifier  liveness.Verifier
	livenessC liveness.Config
	extractor Extractor
	uploader  Uploader
	persister Persister
	merger    Merger
	log       logging.Logger

	mu        sync.Mutex
	stage     Stage
	identity  string
	session   *Session
	challenge *liveness.Challenge
	livCancel context.CancelFunc
}

func NewController(
	source capture.Source,
	verifier liveness.Verifier,
	livenessCfg liveness.Config,
	extractor Extractor,
	uploader Uploader,
	persister Persister,
	merger Merger,
	log logging.Logger,
) *Controller {
	return &Controller{
		source:    source,
		verifier:  verifier,
		livenessC: livenessCfg,
		extractor: extractor,
		uploader:  uploader,
		persister: persister,
		merger:    merger,
		log:       log.With("component", "enroll"),
		stage:     StageIdle,
	}
}

// Stage returns the current state machine value.
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

func (c *Controller) transition(from, to Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage != from {
		return fmt.Errorf("%w: cannot go to %s from %s", faceerr.ErrInvalidArgument, to, c.stage)
	}
	c.stage = to
	return nil
}

// fail discards the session, releases the camera, and returns the
// controller to Idle. The pipeline never persists partial biometric state,
// so there is nothing to roll back locally.
func (c *Controller) fail(ctx context.Context, err error) error {
	c.mu.Lock()
	stage := c.stage
	c.session = nil
	c.challenge = nil
	c.livCancel = nil
	c.stage = StageIdle
	c.mu.Unlock()

	if cerr := c.source.Close(); cerr != nil {
		c.log.Warn(ctx, "failed to release camera", "error", cerr)
	}

	c.log.Error(ctx, "enrollment attempt failed", "stage", string(stage), "error", err)
	return err
}

// BeginCapture acquires exclusive camera access. Valid only from Idle.
func (c *Controller) BeginCapture(ctx context.Context, identity string) error {
	if identity == "" {
		return fmt.Errorf("%w: identity required", faceerr.ErrInvalidArgument)
	}
	if err := c.transition(StageIdle, StageCapturing); err != nil {
		return err
	}

	c.mu.Lock()
	c.identity = identity
	c.session = newSession()
	c.mu.Unlock()

	if err := c.source.Open(ctx); err != nil {
		return c.fail(ctx, err)
	}

	c.log.Info(ctx, "capture started", "identity", identity)
	return nil
}

// Capture snapshots one still frame into the session. Valid only from
// Capturing with an active stream.
func (c *Controller) Capture(ctx context.Context) error {
	if err := c.transition(StageCapturing, StageCaptured); err != nil {
		return err
	}

	image, err := c.source.Snapshot(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	c.mu.Lock()
	c.session.Image = image
	c.mu.Unlock()

	c.log.Info(ctx, "still frame captured", "bytes", len(image))
	return nil
}

// StartLivenessChallenge runs the timed action challenge against the active
// stream. Valid only from Captured. On success the controller is ready for
// Complete; on failure the attempt is discarded.
func (c *Controller) StartLivenessChallenge(ctx context.Context) error {
	if err := c.transition(StageCaptured, StageLivenessPending); err != nil {
		return err
	}

	challenge, err := liveness.New(c.verifier, c.livenessC, c.log)
	if err != nil {
		return c.fail(ctx, err)
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	c.mu.Lock()
	c.challenge = challenge
	c.livCancel = cancelRun
	c.stage = StageLivenessRecording
	c.mu.Unlock()

	video, err := challenge.Run(runCtx, c.source.Frames())

	c.mu.Lock()
	cancelled := c.stage != StageLivenessRecording && c.stage != StageLivenessEvaluating
	if !cancelled {
		c.stage = StageLivenessEvaluating
	}
	c.challenge = nil
	c.livCancel = nil
	c.mu.Unlock()

	if cancelled {
		return fmt.Errorf("%w: enrollment cancelled", faceerr.ErrInvalidArgument)
	}
	if err != nil {
		return c.fail(ctx, err)
	}

	// The camera has served its purpose; release it before the network
	// steps so a failure there can never leak the device lock.
	if err := c.source.Close(); err != nil {
		c.log.Warn(ctx, "failed to release camera", "error", err)
	}

	c.mu.Lock()
	c.session.Video = video
	c.stage = StageExtracting
	c.mu.Unlock()

	c.log.Info(ctx, "liveness confirmed", "video_bytes", len(video))
	return nil
}

// Complete runs the remaining pipeline: extraction, upload, persistence.
// Valid only from Extracting (i.e. after a successful liveness challenge).
func (c *Controller) Complete(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.stage != StageExtracting {
		stage := c.stage
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot complete from %s", faceerr.ErrInvalidArgument, stage)
	}
	identity := c.identity
	image := c.session.Image
	c.mu.Unlock()

	// Extraction. An empty vector is terminal, not retried.
	features, err := c.extractor.Extract(ctx, image)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	if len(features) == 0 {
		return nil, c.fail(ctx, faceerr.ErrNoFaceDetected)
	}

	c.mu.Lock()
	c.session.Features = features
	c.stage = StageUploading
	c.mu.Unlock()

	// Upload. Authorization failures at the storage layer get their own
	// kind so the caller can tell them apart from profile-store denials.
	imageURL, err := c.uploader.UploadFaceImage(ctx, identity, image)
	if err != nil {
		if errors.Is(err, faceerr.ErrPermissionDenied) {
			err = fmt.Errorf("%w: %v", faceerr.ErrStoragePermissionDenied, err)
		}
		return nil, c.fail(ctx, err)
	}

	c.mu.Lock()
	c.stage = StagePersisting
	c.mu.Unlock()

	// Persistence: the point of no return. On failure the blob and the
	// extracted vector are not rolled back remotely, but the local profile
	// stays untouched and re-running from Idle overwrites them safely.
	if err := c.persister.UpdateFace(ctx, identity, imageURL, features); err != nil {
		return nil, c.fail(ctx, fmt.Errorf("%w: %v", faceerr.ErrPersistenceFailed, err))
	}

	// Optimistic local merge; no refetch required.
	c.merger.ApplyEnrollment(imageURL, features)

	c.mu.Lock()
	c.session = nil
	c.stage = StageDone
	c.mu.Unlock()

	c.log.Info(ctx, "enrollment complete", "identity", identity, "dims", len(features))
	return &Result{FaceImageURL: imageURL, FacialFeatures: features}, nil
}

// StopRecording ends the liveness recording early; whatever was recorded so
// far still goes to the verifier. No-op outside the recording stage.
func (c *Controller) StopRecording() {
	c.mu.Lock()
	challenge := c.challenge
	c.mu.Unlock()
	if challenge != nil {
		challenge.Stop()
	}
}

// Cancel abandons the current attempt. Available from Capturing, Captured,
// and during the liveness stages; no side effect has occurred at these
// points, so discarding the session is free. Not available once persistence
// has begun.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	switch c.stage {
	case StageCapturing, StageCaptured, StageLivenessPending, StageLivenessRecording, StageLivenessEvaluating, StageExtracting:
	default:
		stage := c.stage
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot cancel from %s", faceerr.ErrInvalidArgument, stage)
	}
	cancelRun := c.livCancel
	c.session = nil
	c.challenge = nil
	c.livCancel = nil
	c.stage = StageIdle
	c.mu.Unlock()

	// Tear the challenge down through its context: the recording stops and
	// no verifier call is made for an abandoned attempt.
	if cancelRun != nil {
		cancelRun()
	}
	if err := c.source.Close(); err != nil {
		c.log.Warn(ctx, "failed to release camera", "error", err)
	}

	c.log.Info(ctx, "enrollment cancelled")
	return nil
}

// Reset returns the controller to Idle after a completed enrollment.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage != StageDone {
		return fmt.Errorf("%w: cannot reset from %s", faceerr.ErrInvalidArgument, c.stage)
	}
	c.stage = StageIdle
	return nil
}
