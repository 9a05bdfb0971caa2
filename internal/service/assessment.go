package service

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/heartguard-api/internal/domain"
)

// AssessmentService orchestrates the risk-assessment pipeline:
// validation, encoding, classification, persistence.
type AssessmentService struct {
	classifier domain.RiskClassifier
	records    domain.RecordStore
	logger     *logrus.Logger
}

// NewAssessmentService creates a new assessment service. The
// classifier is constructed once at process start and injected here,
// never accessed through ambient state.
func NewAssessmentService(classifier domain.RiskClassifier, records domain.RecordStore, logger *logrus.Logger) *AssessmentService {
	return &AssessmentService{
		classifier: classifier,
		records:    records,
		logger:     logger,
	}
}

// Submit validates and encodes the raw form input, classifies it, and
// persists one RiskRecord for the user. A *domain.ValidationError
// means nothing was written; a *domain.StorageError means the verdict
// was computed but the save failed, and the record is withheld so the
// caller knows.
func (s *AssessmentService) Submit(ctx context.Context, userID uuid.UUID, form url.Values) (*domain.RiskRecord, error) {
	vector, err := domain.ParseSubmission(form)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Debug("Submission rejected by validation")
		return nil, err
	}

	verdict := s.classifier.Classify(vector)

	record := &domain.RiskRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Features:  vector,
		Verdict:   verdict,
		Label:     verdict.Label(),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.records.CreateRecord(ctx, record); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"verdict": verdict.String(),
		}).Error("Failed to persist risk record")
		return nil, domain.NewStorageError("create risk record", err)
	}

	s.logger.WithFields(logrus.Fields{
		"record_id":  record.ID,
		"user_id":    userID,
		"verdict":    verdict.String(),
		"classifier": s.classifier.Name(),
	}).Info("Risk assessment completed")

	return record, nil
}

// History returns the user's records ascending by creation time,
// together with the derived chart series.
func (s *AssessmentService) History(ctx context.Context, userID uuid.UUID) ([]domain.RiskRecord, domain.ChartSeries, error) {
	records, err := s.records.ListRecordsByUser(ctx, userID)
	if err != nil {
		return nil, domain.ChartSeries{}, domain.NewStorageError("list risk records", err)
	}
	return records, ProjectHistory(records), nil
}

// ClassifierName exposes the active classification path for
// diagnostics endpoints.
func (s *AssessmentService) ClassifierName() string {
	return s.classifier.Name()
}
