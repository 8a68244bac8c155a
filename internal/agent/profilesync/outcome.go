package profilesync

import (
	"errors"

	"github.com/avigen/faceguard/internal/faceerr"
)

// Status tags the most recent profile read.
type Status int

const (
	// StatusNone means no read has completed yet for the current identity.
	StatusNone Status = iota
	// StatusFresh means the profile came straight from the service.
	StatusFresh
	// StatusFromCache means the profile was served from the local mirror
	// while the service was unreachable. Advisory-offline.
	StatusFromCache
	// StatusError means the read failed; Err carries the kind.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusFresh:
		return "fresh"
	case StatusFromCache:
		return "from-cache"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result attached to the most recent profile read.
type Outcome struct {
	Status Status
	Err    error
}

// Offline reports whether the outcome says we are (or were) cut off from the
// service: either an unavailable error or a successful cache read.
func (o Outcome) Offline() bool {
	if o.Status == StatusFromCache {
		return true
	}
	return o.Status == StatusError && errors.Is(o.Err, faceerr.ErrUnavailable)
}
