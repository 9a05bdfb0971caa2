package service

import (
	"github.com/heartguard-api/internal/domain"
)

// chartDateLayout is the calendar-date label format used by the charts.
const chartDateLayout = "2006-01-02"

// ProjectHistory derives the chart series from a user's records. Pure.
// Input must already be ascending by creation time, which is the
// record store's ordering contract. The three output slices are equal
// length, index-aligned, and non-nil even for empty input.
func ProjectHistory(records []domain.RiskRecord) domain.ChartSeries {
	series := domain.ChartSeries{
		Dates:       make([]string, 0, len(records)),
		Systolic:    make([]float64, 0, len(records)),
		Cholesterol: make([]float64, 0, len(records)),
	}

	for _, record := range records {
		series.Dates = append(series.Dates, record.CreatedAt.Format(chartDateLayout))
		series.Systolic = append(series.Systolic, record.Features.SysBP)
		series.Cholesterol = append(series.Cholesterol, record.Features.TotChol)
	}

	return series
}
