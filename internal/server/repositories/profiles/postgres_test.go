package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

const selectProfileQuery = `(?s)^\s*SELECT\s+id,\s*name,\s*email,\s*employee_id,\s*department,\s*face_registered,\s*face_image_url,\s*facial_features\s+FROM\s+profiles\s+WHERE\s+id\s*=\s*\$1`

func TestGet_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	features, err := json.Marshal([]float64{0.1, 0.2})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "employee_id", "department", "face_registered", "face_image_url", "facial_features"}).
		AddRow("u1", "Alice", "alice@corp.example", "E-100", "Security", true, "https://blob/u1.jpg", features)
	mock.ExpectQuery(selectProfileQuery).WithArgs("u1").WillReturnRows(rows)

	p, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.True(t, p.FaceRegistered)
	assert.Equal(t, []float64{0.1, 0.2}, p.FacialFeatures)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectProfileQuery).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, faceerr.ErrNotFound)
}

func TestGet_NullFeatures(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "employee_id", "department", "face_registered", "face_image_url", "facial_features"}).
		AddRow("u1", "Alice", "a@b", "E-100", "Security", false, "", nil)
	mock.ExpectQuery(selectProfileQuery).WithArgs("u1").WillReturnRows(rows)

	p, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, p.FacialFeatures)
	assert.True(t, p.FaceConsistent())
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^\s*INSERT\s+INTO\s+profiles\s*\(id,\s*name,\s*email,\s*employee_id,\s*department,\s*password_salt,\s*password_hash\)`
	mock.ExpectExec(q).
		WithArgs("u1", "Alice", "a@b", "E-100", "Security", []byte("salt"), []byte("hash")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &models.Profile{ID: "u1", Name: "Alice", Email: "a@b", EmployeeID: "E-100", Department: "Security"}
	err := repo.Create(context.Background(), p, &Credentials{Salt: []byte("salt"), PasswordHash: []byte("hash")})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

const updateFaceQuery = `(?s)^\s*UPDATE\s+profiles\s+SET\s+face_registered\s*=\s*TRUE`

func TestUpdateFace_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	encoded, err := json.Marshal([]float64{0.1})
	require.NoError(t, err)

	mock.ExpectExec(updateFaceQuery).
		WithArgs("u1", "https://blob/u1.jpg", encoded).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateFace(context.Background(), "u1", "https://blob/u1.jpg", []float64{0.1})
	require.NoError(t, err)
}

func TestUpdateFace_UnknownID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateFaceQuery).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateFace(context.Background(), "missing", "https://blob/x.jpg", []float64{0.1})
	require.ErrorIs(t, err, faceerr.ErrNotFound)
}

func TestUpdateFace_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateFaceQuery).WillReturnError(errors.New("db down"))

	err := repo.UpdateFace(context.Background(), "u1", "https://blob/u1.jpg", []float64{0.1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestGetCredentials(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^\s*SELECT\s+password_salt,\s*password_hash\s+FROM\s+profiles\s+WHERE\s+id\s*=\s*\$1`
	rows := sqlmock.NewRows([]string{"password_salt", "password_hash"}).
		AddRow([]byte("salt"), []byte("hash"))
	mock.ExpectQuery(q).WithArgs("u1").WillReturnRows(rows)

	creds, err := repo.GetCredentials(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("salt"), creds.Salt)
	assert.Equal(t, []byte("hash"), creds.PasswordHash)

	mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetCredentials(context.Background(), "missing")
	require.ErrorIs(t, err, faceerr.ErrNotFound)
}
