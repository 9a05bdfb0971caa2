// Package classifier implements the binary cardiovascular risk
// classifier: a pre-fitted scaler + linear model loaded from artifacts
// at startup, with a configurable rule-based fallback when the
// artifacts are unavailable.
package classifier

import (
	"github.com/sirupsen/logrus"

	"github.com/heartguard-api/internal/domain"
)

// Load selects the classification path. The trained model is preferred
// whenever both artifacts load successfully; any load failure degrades
// transparently to the rule-based fallback. Callers never observe
// which path ran except through diagnostics.
func Load(cfg domain.ClassifierConfig, logger *logrus.Logger) domain.RiskClassifier {
	if cfg.ScalerPath != "" && cfg.ModelPath != "" {
		model, err := LoadTrainedModel(cfg.ScalerPath, cfg.ModelPath, logger)
		if err == nil {
			return model
		}
		logger.WithError(err).WithField("code", domain.ErrCodeClassifierArtifacts).Warn("Trained classifier unavailable, degrading to rule-based fallback")
	} else {
		logger.Info("No classifier artifacts configured, using rule-based fallback")
	}

	rules, err := RulesFromConfig(cfg.Rules)
	if err != nil {
		logger.WithError(err).Warn("Invalid fallback rule configuration, using default rule set")
		rules = DefaultRules()
	}

	return NewRuleBasedFallback(rules, cfg.RiskThreshold, logger)
}
