package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) CreateUser(ctx context.Context, u User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, is_admin)
		VALUES (?, ?, ?, ?)
	`, u.ID, u.Username, u.PasswordHash, u.IsAdmin)

	if err != nil {
		return errors.Wrap(err, "create user")
	}
	return nil
}

// UpsertUser replaces the password and admin flag of an existing username,
// keeping its id.
func (r *Repo) UpsertUser(ctx context.Context, u User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, is_admin)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			password_hash = excluded.password_hash,
			is_admin = excluded.is_admin
	`, u.ID, u.Username, u.PasswordHash, u.IsAdmin)

	if err != nil {
		return errors.Wrap(err, "upsert user")
	}
	return nil
}

// Lookup implements CredentialStore. A missing user is (nil, nil).
func (r *Repo) Lookup(ctx context.Context, username string) (*User, error) {
	return r.GetByUsername(ctx, username)
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(username)
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, username, password_hash, is_admin, created_at
		FROM users
		WHERE username = ?
	`, username)

	u, err := scanUser(row)
	if err != nil {
		return nil, errors.Wrap(err, "get by username")
	}
	return u, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, username, password_hash, is_admin, created_at
		FROM users
		WHERE id = ?
	`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, errors.Wrap(err, "get by id")
	}
	return u, nil
}

func (r *Repo) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count users")
	}
	return n, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
