package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meghkala/api/internal/domain"
)

// UserStore implements domain.UserStore on PostgreSQL. Emails are stored
// lower-cased.
type UserStore struct {
	pool *pgxpool.Pool
}

var _ domain.UserStore = (*UserStore)(nil)

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const selectUser = `
	SELECT id, name, email, password_hash, is_admin, created_at, updated_at
	FROM users`

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	const op = "user.create"

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())`,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return domain.Internal(err, op, "failed to create user")
	}
	return nil
}

func (s *UserStore) Update(ctx context.Context, u *domain.User) error {
	const op = "user.update"

	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, is_admin = $5, updated_at = now()
		WHERE id = $1`,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return domain.Internal(err, op, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.one(ctx, "user.get", ` WHERE id = $1`, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.one(ctx, "user.get_by_email", ` WHERE email = $1`, strings.ToLower(email))
}

func (s *UserStore) one(ctx context.Context, op, clause string, arg any) (*domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx, selectUser+clause, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to get user")
	}
	return &u, nil
}

// SessionStore implements domain.SessionStore on PostgreSQL.
type SessionStore struct {
	pool *pgxpool.Pool
}

var _ domain.SessionStore = (*SessionStore)(nil)

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	const op = "session.create"

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES ($1, $2, $3)`,
		sess.Token, sess.UserID, sess.ExpiresAt)
	if err != nil {
		return domain.Internal(err, op, "failed to create session")
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	const op = "session.get"

	var sess domain.Session
	err := s.pool.QueryRow(ctx,
		`SELECT token, user_id, expires_at FROM sessions WHERE token = $1`, token,
	).Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to get session")
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	const op = "session.delete"

	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return domain.Internal(err, op, "failed to delete session")
	}
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) error {
	const op = "session.delete_expired"

	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now); err != nil {
		return domain.Internal(err, op, "failed to delete expired sessions")
	}
	return nil
}
