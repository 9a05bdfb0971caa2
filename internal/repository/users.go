package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/heartguard-api/internal/domain"
)

// UserRepository handles user account persistence in Postgres.
type UserRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		db:  db,
		log: logger,
	}
}

const userColumns = `id, username, password_hash, is_admin, last_login, created_at`

// CreateUser inserts a new user account.
func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	// The first account is promoted to admin inside the insert itself
	// so two concurrent registrations cannot both claim the role.
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4 OR NOT EXISTS (SELECT 1 FROM users), $5, $6)
		RETURNING is_admin`

	err := r.db.QueryRow(ctx, query,
		user.ID, user.Username, user.PasswordHash,
		user.IsAdmin, user.LastLogin, user.CreatedAt,
	).Scan(&user.IsAdmin)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrUserExists
		}
		r.log.WithFields(logrus.Fields{
			"user_id":  user.ID,
			"username": user.Username,
			"error":    err,
		}).Error("Failed to create user")
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

// GetUserByUsername retrieves a user by username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, username))
}

// GetUserByID retrieves a user by ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var lastLogin *time.Time

	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash,
		&user.IsAdmin, &lastLogin, &user.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	if lastLogin != nil {
		user.LastLogin = *lastLogin
	}
	return &user, nil
}

// CountUsers returns the total number of registered users.
func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// TouchLastLogin updates a user's last-login timestamp.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx,
		"UPDATE users SET last_login = $1 WHERE id = $2", at, id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

// ListUsers returns all registered users ascending by creation time.
func (r *UserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		var lastLogin *time.Time
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash,
			&user.IsAdmin, &lastLogin, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		if lastLogin != nil {
			user.LastLogin = *lastLogin
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
