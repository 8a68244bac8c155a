package faceerr

import "errors"

// Category returns the human-facing message category for err, distinct from
// the internal error kind. The CLI prints these verbatim.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCameraUnavailable):
		return "camera is not available, check the device and permissions"
	case errors.Is(err, ErrCaptureFailed):
		return "could not take a picture, try again"
	case errors.Is(err, ErrNoRecordingData):
		return "nothing was recorded, try again"
	case errors.Is(err, ErrLivenessRejected):
		return "liveness check failed, follow the requested actions and retry"
	case errors.Is(err, ErrVerification):
		return "liveness check could not be completed, try again later"
	case errors.Is(err, ErrNoFaceDetected):
		return "no face found in the picture, adjust lighting and retry"
	case errors.Is(err, ErrStoragePermissionDenied):
		return "image storage refused the upload, access rules must be checked"
	case errors.Is(err, ErrPersistenceFailed):
		return "saving the profile failed, please retry"
	case errors.Is(err, ErrUnavailable):
		return "you appear to be offline"
	case errors.Is(err, ErrPermissionDenied):
		return "access denied, access rules must be checked"
	case errors.Is(err, ErrNotFound):
		return "profile not found"
	case errors.Is(err, ErrInvalidArgument):
		return "the request was rejected as invalid"
	default:
		return "something went wrong, please retry"
	}
}
