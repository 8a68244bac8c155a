// Package faceerr defines the sentinel errors shared by the agent and the
// profile service. Callers match them with errors.Is.
//
// Enrollment-pipeline errors are terminal for the current attempt: the
// transient session is discarded and the controller returns to idle.
// Profile-sync errors follow a retain-or-clear rule: ErrUnavailable retains
// the last known-good profile, every other kind clears it.
package faceerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Capture / camera errors.
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrCaptureFailed     = errors.New("capture failed")

	// Liveness challenge errors.
	ErrNoRecordingData  = errors.New("no recording data")
	ErrVerification     = errors.New("verification error")
	ErrLivenessRejected = errors.New("liveness rejected")

	// Extraction / persistence errors.
	ErrNoFaceDetected          = errors.New("no face detected")
	ErrStoragePermissionDenied = errors.New("storage permission denied")
	ErrPersistenceFailed       = errors.New("persistence failed")

	// Remote store errors.
	ErrUnavailable      = errors.New("unavailable")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknown          = errors.New("unknown error")
)

// LivenessRejectedError reports a rejected liveness challenge together with
// the required actions the verifier did not confirm. Missing may be empty
// when the subject performed every action but the liveness flag itself was
// false.
type LivenessRejectedError struct {
	Missing []string
}

func (e *LivenessRejectedError) Error() string {
	if len(e.Missing) == 0 {
		return "liveness rejected: subject not recognized as live"
	}
	return fmt.Sprintf("liveness rejected: actions not confirmed: %s", strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrLivenessRejected) match.
func (e *LivenessRejectedError) Is(target error) bool {
	return target == ErrLivenessRejected
}
