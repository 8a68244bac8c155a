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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT id, name, email, employee_id, department, face_registered, face_image_url, facial_features
	          FROM profiles WHERE id = ?`

	p := &models.Profile{}
	var features []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.EmployeeID, &p.Department,
		&p.FaceRegistered, &p.FaceImageURL, &features)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, faceerr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile[%s]: %w", id, err)
	}

	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.FacialFeatures); err != nil {
			return nil, fmt.Errorf("failed to decode features for profile[%s]: %w", id, err)
		}
	}
	return p, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, p *models.Profile) error {
	var features []byte
	if len(p.FacialFeatures) > 0 {
		var err error
		features, err = json.Marshal(p.FacialFeatures)
		if err != nil {
			return fmt.Errorf("failed to encode features: %w", err)
		}
	}

	query := `INSERT INTO profiles (id, name, email, employee_id, department, face_registered, face_image_url, facial_features)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT(id) DO UPDATE SET
	              name = excluded.name,
	              email = excluded.email,
	              employee_id = excluded.employee_id,
	              department = excluded.department,
	              face_registered = excluded.face_registered,
	              face_image_url = excluded.face_image_url,
	              facial_features = excluded.facial_features`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Email, p.EmployeeID, p.Department,
		p.FaceRegistered, p.FaceImageURL, features)
	if err != nil {
		return fmt.Errorf("failed to upsert profile[%s]: %w", p.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile[%s]: %w", id, err)
	}
	return nil
}
