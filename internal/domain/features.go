package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// vitalBound is a plausibility range for a required vital sign.
type vitalBound struct {
	min, max float64
}

// requiredVitals are the core vitals that fail the whole submission
// when absent or non-parseable, with generous physiological bounds.
var requiredVitals = map[string]vitalBound{
	"age":       {1, 120},
	"totChol":   {50, 700},
	"sysBP":     {50, 300},
	"diaBP":     {30, 200},
	"BMI":       {8, 100},
	"heartRate": {20, 250},
	"glucose":   {20, 600},
}

// ParseSubmission encodes raw form-style input into the canonical
// feature vector. Boolean-like fields match "yes" (or "male" for
// gender) case-insensitively; anything else, including absent, is 0.
// Optional numerics default to 0, required vitals fail closed with a
// *ValidationError.
func ParseSubmission(form url.Values) (FeatureVector, error) {
	var fv FeatureVector

	fv.Male = encodeFlag(form.Get("gender"), "male")
	fv.CurrentSmoker = encodeFlag(form.Get("currentSmoker"), "yes")
	fv.BPMeds = encodeFlag(form.Get("BPMeds"), "yes")
	fv.PrevalentStroke = encodeFlag(form.Get("prevalentStroke"), "yes")
	fv.PrevalentHyp = encodeFlag(form.Get("prevalentHyp"), "yes")
	fv.Diabetes = encodeFlag(form.Get("diabetes"), "yes")

	cigs, err := parseOptionalFloat(form, "cigsPerDay")
	if err != nil {
		return FeatureVector{}, err
	}
	fv.CigsPerDay = cigs

	required := []struct {
		name string
		dst  *float64
	}{
		{"age", &fv.Age},
		{"totChol", &fv.TotChol},
		{"sysBP", &fv.SysBP},
		{"diaBP", &fv.DiaBP},
		{"BMI", &fv.BMI},
		{"heartRate", &fv.HeartRate},
		{"glucose", &fv.Glucose},
	}
	for _, field := range required {
		val, err := parseRequiredFloat(form, field.name)
		if err != nil {
			return FeatureVector{}, err
		}
		*field.dst = val
	}

	return fv, nil
}

// encodeFlag maps a boolean-like form value to 1 or 0.
func encodeFlag(raw, truthy string) float64 {
	if strings.EqualFold(strings.TrimSpace(raw), truthy) {
		return 1
	}
	return 0
}

// parseOptionalFloat parses an optional non-negative numeric field,
// defaulting to 0 when absent or empty.
func parseOptionalFloat(form url.Values, name string) (float64, error) {
	raw := strings.TrimSpace(form.Get(name))
	if raw == "" {
		return 0, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, NewValidationError(name, "must be a number", raw)
	}
	if val < 0 {
		return 0, NewValidationError(name, "must not be negative", raw)
	}
	return val, nil
}

// parseRequiredFloat parses a required vital and enforces its
// plausibility bounds.
func parseRequiredFloat(form url.Values, name string) (float64, error) {
	raw := strings.TrimSpace(form.Get(name))
	if raw == "" {
		return 0, NewValidationError(name, "is required", nil)
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, NewValidationError(name, "must be a number", raw)
	}
	if bound, ok := requiredVitals[name]; ok {
		if val < bound.min || val > bound.max {
			return 0, NewValidationError(name, "outside plausible range", val)
		}
	}
	return val, nil
}
