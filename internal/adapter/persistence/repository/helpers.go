package repository

import (
	"encoding/json"
	"strconv"
	"time"

	"construction_estimator/internal/domain/entities"
)

// timeLayout is fixed width so stored timestamps sort as text in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime also reads older rows written without the zero padding.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func floatToString(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// withCollections makes empty collections marshal as [] rather than null.
func withCollections(e entities.Estimate) entities.Estimate {
	if e.Items == nil {
		e.Items = []entities.Item{}
	}
	if e.Assumptions == nil {
		e.Assumptions = []entities.Assumption{}
	}
	if e.Questions == nil {
		e.Questions = []string{}
	}
	return e
}
