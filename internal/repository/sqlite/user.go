package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/feed-curation/internal/apperror"
	"github.com/sakif/feed-curation/internal/model"
	"github.com/sakif/feed-curation/internal/repository"
)

// compile-time check that *UserRepo implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo is the SQLite-backed user store.
type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user. Email is the primary key, so inserting an
// existing address fails with a constraint error from the driver.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO users (email, nickname, created_at, updated_at)
		 VALUES (?, ?, ?, ?)`,
		user.Email,
		user.Nickname,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetByEmail retrieves a user by their email address.
// Returns apperror.ErrNotFound if no such user exists.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT email, nickname, created_at, updated_at FROM users WHERE email = ?`,
		email,
	).Scan(&u.Email, &u.Nickname, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", email, err)
	}

	return &u, nil
}
