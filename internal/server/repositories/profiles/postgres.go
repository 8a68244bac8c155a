package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/avigen/faceguard/internal/dbx"
	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	query :=
		`SELECT id, name, email, employee_id, department, face_registered, face_image_url, facial_features
		 FROM profiles
		 WHERE id = $1
		 `

	p := &models.Profile{}
	var features []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.EmployeeID, &p.Department,
		&p.FaceRegistered, &p.FaceImageURL, &features)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, faceerr.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.FacialFeatures); err != nil {
			return nil, fmt.Errorf("db error: decode features: %w", err)
		}
	}

	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile, creds *Credentials) error {
	query :=
		`INSERT INTO profiles (id, name, email, employee_id, department, password_salt, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Email, p.EmployeeID, p.Department, creds.Salt, creds.PasswordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) UpdateFace(ctx context.Context, id, imageURL string, features []float64) error {
	encoded, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	query :=
		`UPDATE profiles
		 SET face_registered = TRUE, face_image_url = $2, facial_features = $3
		 WHERE id = $1
		 `

	result, err := r.db.ExecContext(ctx, query, id, imageURL, encoded)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return faceerr.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) GetCredentials(ctx context.Context, id string) (*Credentials, error) {
	query :=
		`SELECT password_salt, password_hash FROM profiles
		 WHERE id = $1
		 `

	creds := &Credentials{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&creds.Salt, &creds.PasswordHash)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, faceerr.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return creds, nil
}
