package repository

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimeSortsChronologically(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(100 * time.Millisecond),
		base.Add(120 * time.Millisecond),
		base.Add(time.Second),
	}

	formatted := make([]string, 0, len(times))
	for _, tm := range times {
		formatted = append(formatted, formatTime(tm))
	}
	assert.True(t, sort.StringsAreSorted(formatted), "got %v", formatted)
	assert.Equal(t, "2026-03-01T10:00:01.000000000Z", formatted[0])

	for i, s := range formatted {
		assert.True(t, times[i].Equal(parseTime(s)))
	}
}

func TestFormatTimeNormalizesToUTC(t *testing.T) {
	local := time.Date(2026, 3, 1, 7, 0, 0, 5, time.FixedZone("BRT", -3*3600))
	assert.Equal(t, "2026-03-01T10:00:00.000000005Z", formatTime(local))
	assert.True(t, local.Equal(parseTime("2026-03-01T10:00:00.000000005Z")))
	assert.True(t, local.Add(-5).Equal(parseTime("2026-03-01T10:00:00Z")))
}
