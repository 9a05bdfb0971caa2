package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RiskClassifier produces a binary verdict from a feature vector.
// Implementations must be pure and deterministic for a given vector
// and model state.
type RiskClassifier interface {
	Classify(v FeatureVector) Verdict
	// Name identifies the active classification path for diagnostics.
	Name() string
}

// RecordStore persists risk assessments. Writes are append-only per
// user; records are never updated or deleted through this interface.
type RecordStore interface {
	CreateRecord(ctx context.Context, record *RiskRecord) error
	// ListRecordsByUser returns the user's records ascending by
	// creation time.
	ListRecordsByUser(ctx context.Context, userID uuid.UUID) ([]RiskRecord, error)
	ListAllRecords(ctx context.Context) ([]RiskRecord, error)
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a new account. The very first account is
	// promoted to admin atomically with the insert; the persisted
	// flag is written back to user.IsAdmin.
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	CountUsers(ctx context.Context) (int64, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	ListUsers(ctx context.Context) ([]User, error)
}

// AdvisoryProvider forwards a free-text query to the advisory backend.
// Implementations never return an error; unavailability and malformed
// replies degrade to fixed responses.
type AdvisoryProvider interface {
	Ask(ctx context.Context, query string) *AdvisoryResponse
}
