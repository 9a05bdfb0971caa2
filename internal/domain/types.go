package domain

import (
	"time"

	"github.com/google/uuid"
)

// Verdict is the binary outcome of a risk assessment.
type Verdict int

const (
	VerdictHealthy Verdict = iota
	VerdictHighRisk
)

// String returns the wire representation of the verdict.
func (v Verdict) String() string {
	if v == VerdictHighRisk {
		return "high-risk"
	}
	return "healthy"
}

// Label returns the human-readable label attached to records at creation time.
func (v Verdict) Label() string {
	if v == VerdictHighRisk {
		return "High Risk of Heart Disease"
	}
	return "Heart seems Healthy"
}

// NumFeatures is the dimensionality of the canonical feature vector.
// The trained artifacts were fit on exactly this many columns.
const NumFeatures = 14

// FeatureVector is the fixed-order numeric encoding of a user's
// cardiovascular risk factors (Framingham-style field set).
type FeatureVector struct {
	Male            float64 `json:"male"`
	Age             float64 `json:"age"`
	CurrentSmoker   float64 `json:"currentSmoker"`
	CigsPerDay      float64 `json:"cigsPerDay"`
	BPMeds          float64 `json:"BPMeds"`
	PrevalentStroke float64 `json:"prevalentStroke"`
	PrevalentHyp    float64 `json:"prevalentHyp"`
	Diabetes        float64 `json:"diabetes"`
	TotChol         float64 `json:"totChol"`
	SysBP           float64 `json:"sysBP"`
	DiaBP           float64 `json:"diaBP"`
	BMI             float64 `json:"BMI"`
	HeartRate       float64 `json:"heartRate"`
	Glucose         float64 `json:"glucose"`
}

// Values returns the vector in canonical column order. The order must
// match the order the classifier artifacts were fit on; changing it
// silently corrupts predictions.
func (f FeatureVector) Values() [NumFeatures]float64 {
	return [NumFeatures]float64{
		f.Male, f.Age, f.CurrentSmoker, f.CigsPerDay, f.BPMeds,
		f.PrevalentStroke, f.PrevalentHyp, f.Diabetes, f.TotChol, f.SysBP,
		f.DiaBP, f.BMI, f.HeartRate, f.Glucose,
	}
}

// RiskRecord is one persisted assessment. Records are immutable once
// created and owned exclusively by the user who created them.
type RiskRecord struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	Features  FeatureVector `json:"features"`
	Verdict   Verdict       `json:"-"`
	Label     string        `json:"label"`
	CreatedAt time.Time     `json:"created_at"`
}

// User represents an account that owns risk records.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	LastLogin    time.Time `json:"last_login"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChartSeries holds the chronological series derived from a user's
// records for charting. All three slices are equal length and aligned
// by index, ascending by creation time.
type ChartSeries struct {
	Dates       []string  `json:"dates"`
	Systolic    []float64 `json:"bp_data"`
	Cholesterol []float64 `json:"chol_data"`
}

// AdvisoryTip is one structured health tip from the advisory backend.
type AdvisoryTip struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// AdvisoryResponse is the normalized reply of the advisory gateway.
// Type is "json" when Response carries a JSON-encoded tip array
// (kept double-encoded for interface compatibility) and "text" for
// the fixed offline and error replies. Tips carries the parsed array
// so new callers need not decode Response themselves.
type AdvisoryResponse struct {
	Response string        `json:"response"`
	Type     string        `json:"type"`
	Tips     []AdvisoryTip `json:"tips,omitempty"`
}
