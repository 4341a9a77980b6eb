package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user/entity"
)

var userCols = []string{
	"id", "name", "email", "password_hash", "credential_version", "terms_accepted",
	"password_updated_at", "created_at", "updated_at",
}

func newRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestUserRepo_Create(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(`(?s)^INSERT INTO users \(id, name, email, password_hash, credential_version, terms_accepted\).*RETURNING created_at, updated_at$`).
		WithArgs("u1", "Ann", "a@b.com", "hash", int64(1), true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &entity.User{ID: "u1", Name: "Ann", Email: "a@b.com", PasswordHash: "hash", CredentialVersion: 1, TermsAccepted: true}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, now, u.CreatedAt)
	assert.Equal(t, now, u.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &entity.User{ID: "u1", Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepo_Create_OtherError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(boom)

	err := repo.Create(context.Background(), &entity.User{ID: "u1", Email: "a@b.com"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(`(?s)^SELECT id, name, email, password_hash, credential_version.*FROM users WHERE email=\$1$`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "Ann", "a@b.com", "hash", int64(4), true, nil, now, now))

	u, err := repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, int64(4), u.CredentialVersion)
	assert.Nil(t, u.PasswordUpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users WHERE email=\$1`).
		WithArgs("none@b.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByEmail(context.Background(), "none@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_GetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "Ann", "a@b.com", "hash", int64(2), true, now, now, now))

	u, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, u.PasswordUpdatedAt)
	assert.Equal(t, now, *u.PasswordUpdatedAt)
}

func TestUserRepo_GetByID_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).WillReturnError(sql.ErrConnDone)

	_, err := repo.GetByID(context.Background(), "u1")
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_UpdatePasswordHash(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "version matches", affected: 1},
		{name: "version moved on", affected: 0, wantErr: ErrConflictRetry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(`(?s)^UPDATE users SET password_hash=\$3, credential_version=credential_version\+1.*WHERE id=\$1 AND credential_version=\$2$`).
				WithArgs("u1", int64(3), "newhash").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.UpdatePasswordHash(context.Background(), "u1", 3, "newhash")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
