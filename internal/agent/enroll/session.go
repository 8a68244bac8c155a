package enroll

import "github.com/google/uuid"

// Stage is the enrollment state machine value. Transitions are the only
// mutation path; no combination of flags can contradict itself.
type Stage string

const (
	StageIdle               Stage = "idle"
	StageCapturing          Stage = "capturing"
	StageCaptured           Stage = "captured"
	StageLivenessPending    Stage = "liveness_pending"
	StageLivenessRecording  Stage = "liveness_recording"
	StageLivenessEvaluating Stage = "liveness_evaluating"
	StageExtracting         Stage = "extracting"
	StageUploading          Stage = "uploading"
	StagePersisting         Stage = "persisting"
	StageDone               Stage = "done"
)

// Session is the transient state of one capture attempt. It lives from
// BeginCapture until the attempt succeeds (merged into the profile) or fails
// (discarded entirely; no partial writes survive).
type Session struct {
	ID       string
	Image    []byte
	Video    []byte
	Features []float64
}

func newSession() *Session {
	return &Session{ID: uuid.NewString()}
}
