// Package store provides the default SQLite-backed persistence for
// users and risk records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"github.com/heartguard-api/internal/domain"
)

// SQLiteStore implements domain.RecordStore and domain.UserStore using
// SQLite. Risk-record writes are append-only; there is no update or
// delete path for them.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (and creates if needed) the database file and
// schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin INTEGER NOT NULL DEFAULT 0,
		last_login DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS risk_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		male REAL NOT NULL,
		age REAL NOT NULL,
		current_smoker REAL NOT NULL,
		cigs_per_day REAL NOT NULL,
		bp_meds REAL NOT NULL,
		prevalent_stroke REAL NOT NULL,
		prevalent_hyp REAL NOT NULL,
		diabetes REAL NOT NULL,
		tot_chol REAL NOT NULL,
		sys_bp REAL NOT NULL,
		dia_bp REAL NOT NULL,
		bmi REAL NOT NULL,
		heart_rate REAL NOT NULL,
		glucose REAL NOT NULL,
		verdict INTEGER NOT NULL,
		label TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_risk_records_user_created
		ON risk_records(user_id, created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// recordColumns is the shared column list for risk-record queries.
const recordColumns = `id, user_id, male, age, current_smoker, cigs_per_day, bp_meds,
	prevalent_stroke, prevalent_hyp, diabetes, tot_chol, sys_bp, dia_bp,
	bmi, heart_rate, glucose, verdict, label, created_at`

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into a RiskRecord.
func scanRecord(s scanner) (*domain.RiskRecord, error) {
	var rec domain.RiskRecord
	var id, userID string
	var verdict int

	err := s.Scan(
		&id, &userID,
		&rec.Features.Male, &rec.Features.Age, &rec.Features.CurrentSmoker,
		&rec.Features.CigsPerDay, &rec.Features.BPMeds, &rec.Features.PrevalentStroke,
		&rec.Features.PrevalentHyp, &rec.Features.Diabetes, &rec.Features.TotChol,
		&rec.Features.SysBP, &rec.Features.DiaBP, &rec.Features.BMI,
		&rec.Features.HeartRate, &rec.Features.Glucose,
		&verdict, &rec.Label, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("malformed record id: %w", err)
	}
	rec.UserID, err = uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("malformed user id: %w", err)
	}
	rec.Verdict = domain.Verdict(verdict)
	return &rec, nil
}

// CreateRecord inserts one risk record. One insert is one unit of work.
func (s *SQLiteStore) CreateRecord(ctx context.Context, record *domain.RiskRecord) error {
	f := record.Features
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO risk_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID.String(), record.UserID.String(),
		f.Male, f.Age, f.CurrentSmoker, f.CigsPerDay, f.BPMeds,
		f.PrevalentStroke, f.PrevalentHyp, f.Diabetes, f.TotChol,
		f.SysBP, f.DiaBP, f.BMI, f.HeartRate, f.Glucose,
		int(record.Verdict), record.Label, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert risk record: %w", err)
	}
	return nil
}

// ListRecordsByUser returns the user's records ascending by creation
// time. All chart series derive from this single consistent ordering.
func (s *SQLiteStore) ListRecordsByUser(ctx context.Context, userID uuid.UUID) ([]domain.RiskRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM risk_records
		WHERE user_id = ?
		ORDER BY created_at ASC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query risk records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListAllRecords returns every record ascending by creation time.
func (s *SQLiteStore) ListAllRecords(ctx context.Context) ([]domain.RiskRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM risk_records
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]domain.RiskRecord, error) {
	var result []domain.RiskRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

// CreateUser inserts a new user account.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	// The first account is promoted to admin inside the insert itself
	// so two concurrent registrations cannot both claim the role.
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, password_hash, is_admin, last_login, created_at)
		VALUES (?, ?, ?, ? OR NOT EXISTS (SELECT 1 FROM users), ?, ?)
		RETURNING is_admin
	`,
		user.ID.String(), user.Username, user.PasswordHash,
		user.IsAdmin, user.LastLogin, user.CreatedAt,
	).Scan(&user.IsAdmin)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func scanUser(s scanner) (*domain.User, error) {
	var user domain.User
	var id string
	var lastLogin sql.NullTime

	err := s.Scan(&id, &user.Username, &user.PasswordHash, &user.IsAdmin, &lastLogin, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	user.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("malformed user id: %w", err)
	}
	if lastLogin.Valid {
		user.LastLogin = lastLogin.Time
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, is_admin, last_login, created_at
		FROM users WHERE username = ?
	`, username)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, is_admin, last_login, created_at
		FROM users WHERE id = ?
	`, id.String())

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// CountUsers returns the total number of registered users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// TouchLastLogin updates a user's last-login timestamp.
func (s *SQLiteStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login = ? WHERE id = ?", at, id.String())
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// ListUsers returns all registered users ascending by creation time.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, password_hash, is_admin, last_login, created_at
		FROM users ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
