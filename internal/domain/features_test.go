package domain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() url.Values {
	return url.Values{
		"gender":          {"male"},
		"age":             {"45"},
		"currentSmoker":   {"yes"},
		"cigsPerDay":      {"10"},
		"BPMeds":          {"no"},
		"prevalentStroke": {"no"},
		"prevalentHyp":    {"yes"},
		"diabetes":        {"no"},
		"totChol":         {"250"},
		"sysBP":           {"150"},
		"diaBP":           {"95"},
		"BMI":             {"32"},
		"heartRate":       {"80"},
		"glucose":         {"110"},
	}
}

func TestParseSubmission(t *testing.T) {
	fv, err := ParseSubmission(validForm())
	require.NoError(t, err)

	assert.Equal(t, 1.0, fv.Male)
	assert.Equal(t, 45.0, fv.Age)
	assert.Equal(t, 1.0, fv.CurrentSmoker)
	assert.Equal(t, 10.0, fv.CigsPerDay)
	assert.Equal(t, 0.0, fv.BPMeds)
	assert.Equal(t, 0.0, fv.PrevalentStroke)
	assert.Equal(t, 1.0, fv.PrevalentHyp)
	assert.Equal(t, 0.0, fv.Diabetes)
	assert.Equal(t, 250.0, fv.TotChol)
	assert.Equal(t, 150.0, fv.SysBP)
	assert.Equal(t, 95.0, fv.DiaBP)
	assert.Equal(t, 32.0, fv.BMI)
	assert.Equal(t, 80.0, fv.HeartRate)
	assert.Equal(t, 110.0, fv.Glucose)
}

func TestParseSubmission_OrderStable(t *testing.T) {
	// Re-encoding identical input must yield a bit-identical vector.
	first, err := ParseSubmission(validForm())
	require.NoError(t, err)
	second, err := ParseSubmission(validForm())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Values(), second.Values())
}

func TestParseSubmission_CanonicalOrder(t *testing.T) {
	fv, err := ParseSubmission(validForm())
	require.NoError(t, err)

	values := fv.Values()
	require.Len(t, values, NumFeatures)
	// male, age, smoker, cigs, bpmeds, stroke, hyp, diabetes,
	// chol, sysBP, diaBP, BMI, heartRate, glucose
	expected := [NumFeatures]float64{1, 45, 1, 10, 0, 0, 1, 0, 250, 150, 95, 32, 80, 110}
	assert.Equal(t, expected, values)
}

func TestParseSubmission_BooleanEncoding(t *testing.T) {
	form := validForm()
	form.Set("gender", "MALE")
	form.Set("currentSmoker", "YES")
	form.Set("diabetes", "maybe")

	fv, err := ParseSubmission(form)
	require.NoError(t, err)

	assert.Equal(t, 1.0, fv.Male, "case-insensitive male match")
	assert.Equal(t, 1.0, fv.CurrentSmoker, "case-insensitive yes match")
	assert.Equal(t, 0.0, fv.Diabetes, "non-yes values encode to 0")

	form.Del("gender")
	fv, err = ParseSubmission(form)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fv.Male, "absent boolean encodes to 0")
}

func TestParseSubmission_OptionalDefaults(t *testing.T) {
	form := validForm()
	form.Del("cigsPerDay")

	fv, err := ParseSubmission(form)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fv.CigsPerDay)
}

func TestParseSubmission_RequiredVitalsFailClosed(t *testing.T) {
	for _, field := range []string{"age", "totChol", "sysBP", "diaBP", "BMI", "heartRate", "glucose"} {
		t.Run(field+" missing", func(t *testing.T) {
			form := validForm()
			form.Del(field)

			_, err := ParseSubmission(form)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
		})

		t.Run(field+" unparseable", func(t *testing.T) {
			form := validForm()
			form.Set(field, "not-a-number")

			_, err := ParseSubmission(form)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
		})
	}
}

func TestParseSubmission_PlausibilityBounds(t *testing.T) {
	form := validForm()
	form.Set("age", "-5")
	_, err := ParseSubmission(form)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "age", verr.Field)

	form = validForm()
	form.Set("sysBP", "950")
	_, err = ParseSubmission(form)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sysBP", verr.Field)
}

func TestParseSubmission_NegativeOptional(t *testing.T) {
	form := validForm()
	form.Set("cigsPerDay", "-3")

	_, err := ParseSubmission(form)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cigsPerDay", verr.Field)
}
