package services

import (
	"context"
	"fmt"

	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/logging"
	"github.com/avigen/faceguard/internal/models"
	"github.com/avigen/faceguard/internal/server/repositories/profiles"
)

// BlobStore stores binary content addressed by a caller-supplied key and
// returns a retrievable URL. Overwrite semantics on repeated puts.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// ProfileService implements profile reads and the two enrollment writes.
type ProfileService struct {
	repo profiles.Repository
	blob BlobStore
	log  logging.Logger
}

func NewProfileService(repo profiles.Repository, blob BlobStore, log logging.Logger) *ProfileService {
	return &ProfileService{repo: repo, blob: blob, log: log.With("component", "profiles")}
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return s.repo.Get(ctx, id)
}

// UpdateFace persists the registration fields. The face-field invariant is
// enforced here: url and features arrive together or the write is rejected.
func (s *ProfileService) UpdateFace(ctx context.Context, id, imageURL string, features []float64) error {
	if imageURL == "" || len(features) == 0 {
		return fmt.Errorf("%w: face image url and features are both required", faceerr.ErrInvalidArgument)
	}

	if err := s.repo.UpdateFace(ctx, id, imageURL, features); err != nil {
		return err
	}

	s.log.Info(ctx, "face registered", "id", id, "dims", len(features))
	return nil
}

// UploadFaceImage writes the still image to blob storage keyed by the
// profile id and returns its durable URL.
func (s *ProfileService) UploadFaceImage(ctx context.Context, id string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", faceerr.ErrInvalidArgument)
	}

	// The profile must exist before we store a face image under its key.
	if _, err := s.repo.Get(ctx, id); err != nil {
		return "", err
	}

	url, err := s.blob.Put(ctx, faceImageKey(id), image)
	if err != nil {
		return "", err
	}

	s.log.Info(ctx, "face image stored", "id", id, "bytes", len(image))
	return url, nil
}

func faceImageKey(id string) string {
	return fmt.Sprintf("faces/%s.jpg", id)
}
