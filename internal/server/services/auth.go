// Package services contains the application services of the profile
// service: login, profile reads and face updates, and blob storage of face
// images.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/server/auth"
	"github.com/avigen/faceguard/internal/server/repositories/profiles"
)

// AuthService verifies credentials and issues bearer tokens.
type AuthService struct {
	repo          profiles.Repository
	secretKey     []byte
	tokenValidity time.Duration
}

func NewAuthService(repo profiles.Repository, secretKey []byte, tokenValidity time.Duration) *AuthService {
	return &AuthService{repo: repo, secretKey: secretKey, tokenValidity: tokenValidity}
}

// HashPassword derives the stored hash for a password and salt.
func HashPassword(password string, salt []byte) []byte {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(password))
	return h.Sum(nil)
}

// NewSalt returns a fresh random salt for credential creation.
func NewSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Login returns a signed token when the password matches. An unknown id and
// a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, id, password string) (string, error) {
	creds, err := s.repo.GetCredentials(ctx, id)
	if err != nil {
		if errors.Is(err, faceerr.ErrNotFound) {
			return "", faceerr.ErrPermissionDenied
		}
		return "", err
	}

	candidate := HashPassword(password, creds.Salt)
	if subtle.ConstantTimeCompare(creds.PasswordHash, candidate) == 0 {
		return "", faceerr.ErrPermissionDenied
	}

	return auth.GenerateToken(id, s.secretKey, s.tokenValidity)
}
