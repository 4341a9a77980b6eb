package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user/entity"
)

// uniqueViolation is the SQLSTATE Postgres reports for a unique index clash.
const uniqueViolation = "23505"

const userColumns = `id, name, email, password_hash, credential_version, terms_accepted,
		password_updated_at, created_at, updated_at`

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row. ID, email normalisation and hashing are the
// caller's job; CreatedAt/UpdatedAt are filled from the database.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, name, email, password_hash, credential_version, terms_accepted)
		  VALUES (:id, :name, :email, :password_hash, :credential_version, :terms_accepted)
		  RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, u)
	if err != nil {
		return mapWriteErr(err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
			return mapWriteErr(err)
		}
		return nil
	}
	if err := rows.Err(); err != nil {
		return mapWriteErr(err)
	}
	return errors.New("no row returned")
}

// GetByEmail returns a user matched by email (case-insensitive due to citext) or ErrNotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, mapReadErr(err)
	}
	return &row, nil
}

// GetByID fetches a full user row or ErrNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, mapReadErr(err)
	}
	return &row, nil
}

// UpdatePasswordHash swaps the password hash only if credential_version still
// equals expectedVersion, bumping the version in the same statement.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id string, expectedVersion int64, hash string) error {
	const q = `UPDATE users SET password_hash=$3, credential_version=credential_version+1,
		password_updated_at=NOW(), updated_at=NOW()
		WHERE id=$1 AND credential_version=$2`
	res, err := r.db.ExecContext(ctx, q, id, expectedVersion, hash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflictRetry
	}
	return nil
}

func mapReadErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func mapWriteErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}
