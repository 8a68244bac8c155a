package profiles

import (
	"context"

	"github.com/avigen/faceguard/internal/models"
)

// Credentials is the stored login material for a profile.
type Credentials struct {
	Salt         []byte
	PasswordHash []byte
}

// Repository is the server-side profile store.
type Repository interface {
	// Get returns the profile or faceerr.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Profile, error)

	// Create inserts a new profile with its credentials.
	Create(ctx context.Context, p *models.Profile, creds *Credentials) error

	// UpdateFace patches only the registration fields; repeated calls
	// overwrite. Returns faceerr.ErrNotFound for an unknown id.
	UpdateFace(ctx context.Context, id, imageURL string, features []float64) error

	// GetCredentials returns login material or faceerr.ErrNotFound.
	GetCredentials(ctx context.Context, id string) (*Credentials, error)
}
