package rates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	table := Default()

	assert.Equal(t, 120.0, table.RateFor("basic"))
	assert.Equal(t, 180.0, table.RateFor("standard"))
	assert.Equal(t, 240.0, table.RateFor(" Premium "))
	assert.Equal(t, []string{"basic", "premium", "standard"}, table.Tiers())
}

func TestRateForFallsBackToStandard(t *testing.T) {
	table := Default()

	assert.Equal(t, 180.0, table.RateFor(""))
	assert.Equal(t, 180.0, table.RateFor("luxury"))

	tier, rate := table.Resolve("luxury")
	assert.Equal(t, TierStandard, tier)
	assert.Equal(t, 180.0, rate)
	assert.False(t, table.Known("luxury"))
	assert.True(t, table.Known("BASIC"))
}

func TestNewValidation(t *testing.T) {
	_, err := New(map[string]float64{"basic": 100})
	assert.ErrorIs(t, err, ErrMissingStandardTier)

	_, err = New(map[string]float64{"standard": 0})
	assert.ErrorIs(t, err, ErrInvalidRate)

	table, err := New(map[string]float64{"Standard": 200, "luxury": 400})
	require.NoError(t, err)
	assert.Equal(t, 400.0, table.RateFor("luxury"))
	assert.Equal(t, 200.0, table.RateFor("premium"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	content := "rates:\n  basic: 100\n  standard: 150\n  premium: 300\n  custom: 500\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 500.0, table.RateFor("custom"))
	assert.Equal(t, 150.0, table.RateFor("unknown"))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
