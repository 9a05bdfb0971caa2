// Package repository provides the Postgres-backed persistence used
// when storage.driver is "postgres".
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/heartguard-api/internal/domain"
)

// RecordRepository handles risk-record persistence in Postgres.
type RecordRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *pgxpool.Pool, logger *logrus.Logger) *RecordRepository {
	return &RecordRepository{
		db:  db,
		log: logger,
	}
}

const recordColumns = `id, user_id, male, age, current_smoker, cigs_per_day, bp_meds,
	prevalent_stroke, prevalent_hyp, diabetes, tot_chol, sys_bp, dia_bp,
	bmi, heart_rate, glucose, verdict, label, created_at`

// CreateRecord inserts a new risk record. Records are append-only;
// there is no update or delete path.
func (r *RecordRepository) CreateRecord(ctx context.Context, record *domain.RiskRecord) error {
	query := `
		INSERT INTO risk_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	f := record.Features
	_, err := r.db.Exec(ctx, query,
		record.ID, record.UserID,
		f.Male, f.Age, f.CurrentSmoker, f.CigsPerDay, f.BPMeds,
		f.PrevalentStroke, f.PrevalentHyp, f.Diabetes, f.TotChol,
		f.SysBP, f.DiaBP, f.BMI, f.HeartRate, f.Glucose,
		int(record.Verdict), record.Label, record.CreatedAt,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"record_id": record.ID,
			"user_id":   record.UserID,
			"error":     err,
		}).Error("Failed to create risk record")
		return fmt.Errorf("creating risk record: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"record_id": record.ID,
		"user_id":   record.UserID,
		"verdict":   record.Verdict.String(),
	}).Info("Risk record created")

	return nil
}

// ListRecordsByUser returns the user's records ascending by creation
// time. Every chart series derives from this single ordering.
func (r *RecordRepository) ListRecordsByUser(ctx context.Context, userID uuid.UUID) ([]domain.RiskRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM risk_records
		WHERE user_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying risk records: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// ListAllRecords returns every record ascending by creation time.
func (r *RecordRepository) ListAllRecords(ctx context.Context) ([]domain.RiskRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM risk_records
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying risk records: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func (r *RecordRepository) collect(rows pgxRows) ([]domain.RiskRecord, error) {
	var result []domain.RiskRecord
	for rows.Next() {
		var rec domain.RiskRecord
		var verdict int

		err := rows.Scan(
			&rec.ID, &rec.UserID,
			&rec.Features.Male, &rec.Features.Age, &rec.Features.CurrentSmoker,
			&rec.Features.CigsPerDay, &rec.Features.BPMeds, &rec.Features.PrevalentStroke,
			&rec.Features.PrevalentHyp, &rec.Features.Diabetes, &rec.Features.TotChol,
			&rec.Features.SysBP, &rec.Features.DiaBP, &rec.Features.BMI,
			&rec.Features.HeartRate, &rec.Features.Glucose,
			&verdict, &rec.Label, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning risk record: %w", err)
		}
		rec.Verdict = domain.Verdict(verdict)
		result = append(result, rec)
	}
	return result, rows.Err()
}
