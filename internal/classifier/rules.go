package classifier

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/heartguard-api/internal/domain"
)

// Rule is one point-scoring heuristic of the fallback classifier. It
// applies when any of its conditions exceeds its threshold, and
// contributes Points to the accumulated score.
type Rule struct {
	Name       string
	Points     int
	Conditions []Condition
}

// Condition checks a single feature against an exclusive lower bound.
type Condition struct {
	Field string
	Above float64
}

// RuleResult records whether a rule applied during scoring.
type RuleResult struct {
	Name    string `json:"name"`
	Points  int    `json:"points"`
	Applied bool   `json:"applied"`
}

// featureSelectors maps canonical field names to vector accessors.
var featureSelectors = map[string]func(domain.FeatureVector) float64{
	"male":            func(v domain.FeatureVector) float64 { return v.Male },
	"age":             func(v domain.FeatureVector) float64 { return v.Age },
	"currentSmoker":   func(v domain.FeatureVector) float64 { return v.CurrentSmoker },
	"cigsPerDay":      func(v domain.FeatureVector) float64 { return v.CigsPerDay },
	"BPMeds":          func(v domain.FeatureVector) float64 { return v.BPMeds },
	"prevalentStroke": func(v domain.FeatureVector) float64 { return v.PrevalentStroke },
	"prevalentHyp":    func(v domain.FeatureVector) float64 { return v.PrevalentHyp },
	"diabetes":        func(v domain.FeatureVector) float64 { return v.Diabetes },
	"totChol":         func(v domain.FeatureVector) float64 { return v.TotChol },
	"sysBP":           func(v domain.FeatureVector) float64 { return v.SysBP },
	"diaBP":           func(v domain.FeatureVector) float64 { return v.DiaBP },
	"BMI":             func(v domain.FeatureVector) float64 { return v.BMI },
	"heartRate":       func(v domain.FeatureVector) float64 { return v.HeartRate },
	"glucose":         func(v domain.FeatureVector) float64 { return v.Glucose },
}

// DefaultRiskThreshold is the accumulated score at which the verdict
// flips to high-risk.
const DefaultRiskThreshold = 3

// DefaultRules returns the standard fallback rule set.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "hypertension", Points: 2, Conditions: []Condition{
			{Field: "sysBP", Above: 140},
			{Field: "diaBP", Above: 90},
		}},
		{Name: "high_cholesterol", Points: 1, Conditions: []Condition{{Field: "totChol", Above: 240}}},
		{Name: "diabetes", Points: 1, Conditions: []Condition{{Field: "diabetes", Above: 0}}},
		{Name: "smoker", Points: 1, Conditions: []Condition{{Field: "currentSmoker", Above: 0}}},
		{Name: "obesity", Points: 1, Conditions: []Condition{{Field: "BMI", Above: 30}}},
		{Name: "high_glucose", Points: 1, Conditions: []Condition{{Field: "glucose", Above: 120}}},
		{Name: "advanced_age", Points: 1, Conditions: []Condition{{Field: "age", Above: 60}}},
	}
}

// RulesFromConfig builds the rule set from configuration. Unknown
// field names or non-positive point values are rejected so a typo in
// deployment config cannot silently disable a rule.
func RulesFromConfig(cfgs []domain.RuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.Name == "" {
			return nil, fmt.Errorf("rule with empty name")
		}
		if cfg.Points <= 0 {
			return nil, fmt.Errorf("rule %q: points must be positive", cfg.Name)
		}
		if len(cfg.Any) == 0 {
			return nil, fmt.Errorf("rule %q: no conditions", cfg.Name)
		}
		rule := Rule{Name: cfg.Name, Points: cfg.Points}
		for _, cond := range cfg.Any {
			if _, ok := featureSelectors[cond.Field]; !ok {
				return nil, fmt.Errorf("rule %q: unknown field %q", cfg.Name, cond.Field)
			}
			rule.Conditions = append(rule.Conditions, Condition{Field: cond.Field, Above: cond.Above})
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// RuleBasedFallback is the explicit point-scoring heuristic used when
// no trained classifier is available. Scoring is deterministic and
// monotonic: pushing any single factor past its threshold never
// decreases the accumulated score.
type RuleBasedFallback struct {
	rules     []Rule
	threshold int
	logger    *logrus.Logger
}

// NewRuleBasedFallback creates a fallback classifier with the given
// rule set and high-risk threshold.
func NewRuleBasedFallback(rules []Rule, threshold int, logger *logrus.Logger) *RuleBasedFallback {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if threshold <= 0 {
		threshold = DefaultRiskThreshold
	}
	return &RuleBasedFallback{
		rules:     rules,
		threshold: threshold,
		logger:    logger,
	}
}

// Score evaluates every rule and returns the accumulated score with
// per-rule results for diagnostics.
func (r *RuleBasedFallback) Score(v domain.FeatureVector) (int, []RuleResult) {
	score := 0
	results := make([]RuleResult, 0, len(r.rules))

	for _, rule := range r.rules {
		applied := false
		for _, cond := range rule.Conditions {
			if featureSelectors[cond.Field](v) > cond.Above {
				applied = true
				break
			}
		}
		if applied {
			score += rule.Points
		}
		results = append(results, RuleResult{Name: rule.Name, Points: rule.Points, Applied: applied})
	}

	return score, results
}

// Classify produces the verdict from the accumulated rule score.
func (r *RuleBasedFallback) Classify(v domain.FeatureVector) domain.Verdict {
	score, results := r.Score(v)

	if r.logger != nil {
		applied := make([]string, 0, len(results))
		for _, res := range results {
			if res.Applied {
				applied = append(applied, res.Name)
			}
		}
		r.logger.WithFields(logrus.Fields{
			"score":     score,
			"threshold": r.threshold,
			"applied":   applied,
		}).Debug("Rule-based risk scoring completed")
	}

	if score >= r.threshold {
		return domain.VerdictHighRisk
	}
	return domain.VerdictHealthy
}

// Name identifies the active classification path for diagnostics.
func (r *RuleBasedFallback) Name() string {
	return "rule-based"
}
