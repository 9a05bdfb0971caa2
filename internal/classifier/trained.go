package classifier

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/heartguard-api/internal/domain"
)

// ScalerArtifact is the pre-fitted standardization transform. Each
// feature is scaled as (x - Mean[i]) / Scale[i] before classification.
type ScalerArtifact struct {
	Mean  []float64
	Scale []float64
}

// ModelArtifact is the pre-fitted linear decision function. The
// decision score is Intercept + sum(Weights[i] * scaled[i]); a
// positive score maps to the high-risk verdict.
type ModelArtifact struct {
	Weights   []float64
	Intercept float64
}

// TrainedModel wraps a scaler + classifier pair loaded once at process
// start and treated as read-only for the process lifetime.
type TrainedModel struct {
	scaler ScalerArtifact
	model  ModelArtifact
}

// LoadTrainedModel loads both artifacts and validates that they were
// fit on the canonical feature order.
func LoadTrainedModel(scalerPath, modelPath string, logger *logrus.Logger) (*TrainedModel, error) {
	var scaler ScalerArtifact
	if err := decodeArtifact(scalerPath, &scaler); err != nil {
		return nil, &domain.ClassifierUnavailableError{Reason: "loading scaler artifact", Err: err}
	}

	var model ModelArtifact
	if err := decodeArtifact(modelPath, &model); err != nil {
		return nil, &domain.ClassifierUnavailableError{Reason: "loading model artifact", Err: err}
	}

	if len(scaler.Mean) != domain.NumFeatures || len(scaler.Scale) != domain.NumFeatures {
		return nil, &domain.ClassifierUnavailableError{
			Reason: fmt.Sprintf("scaler dimension %d/%d, want %d", len(scaler.Mean), len(scaler.Scale), domain.NumFeatures),
		}
	}
	if len(model.Weights) != domain.NumFeatures {
		return nil, &domain.ClassifierUnavailableError{
			Reason: fmt.Sprintf("model dimension %d, want %d", len(model.Weights), domain.NumFeatures),
		}
	}
	for i, s := range scaler.Scale {
		if s == 0 {
			return nil, &domain.ClassifierUnavailableError{
				Reason: fmt.Sprintf("scaler column %d has zero scale", i),
			}
		}
	}

	logger.WithFields(logrus.Fields{
		"scaler_path": scalerPath,
		"model_path":  modelPath,
		"features":    domain.NumFeatures,
	}).Info("Trained classifier artifacts loaded")

	return &TrainedModel{scaler: scaler, model: model}, nil
}

// Classify applies the stored scaling transform then the stored
// decision function. Pure and deterministic.
func (m *TrainedModel) Classify(v domain.FeatureVector) domain.Verdict {
	values := v.Values()

	score := m.model.Intercept
	for i, x := range values {
		z := (x - m.scaler.Mean[i]) / m.scaler.Scale[i]
		score += m.model.Weights[i] * z
	}

	if score > 0 {
		return domain.VerdictHighRisk
	}
	return domain.VerdictHealthy
}

// Name identifies the active classification path for diagnostics.
func (m *TrainedModel) Name() string {
	return "trained"
}

func decodeArtifact(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decoding artifact: %w", err)
	}
	return nil
}

// WriteArtifact gob-encodes an artifact to disk. Used by offline
// tooling that exports fitted parameters for this server to load.
func WriteArtifact(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating artifact: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	return nil
}
