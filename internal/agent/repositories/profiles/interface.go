package profiles

import (
	"context"

	"github.com/avigen/faceguard/internal/models"
)

// Repository is the agent's local mirror of the remote profile record. It
// backs offline reads: a profile served from here is stale-but-usable.
type Repository interface {
	// Get returns the cached profile or faceerr.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Profile, error)

	// Save upserts the cached profile.
	Save(ctx context.Context, p *models.Profile) error

	// Delete removes the cached profile. Missing rows are not an error.
	Delete(ctx context.Context, id string) error
}
