// Package rates holds the finish-tier cost-per-square-foot table.
package rates

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	TierBasic    = "basic"
	TierStandard = "standard"
	TierPremium  = "premium"
)

var (
	ErrMissingStandardTier = errors.New("rate table has no standard tier")
	ErrInvalidRate         = errors.New("rate must be positive")
)

// DefaultRates are the cost-per-sqft values used when no configuration overrides them.
var DefaultRates = map[string]float64{
	TierBasic:    120.0,
	TierStandard: 180.0,
	TierPremium:  240.0,
}

// Table is an immutable finish tier -> rate lookup.
type Table struct {
	rates map[string]float64
}

// New builds a table from a tier/rate map. Tier names are normalized to lower case.
func New(rates map[string]float64) (*Table, error) {
	normalized := make(map[string]float64, len(rates))
	for tier, rate := range rates {
		key := normalizeTier(tier)
		if key == "" {
			continue
		}
		if rate <= 0 {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidRate, key, rate)
		}
		normalized[key] = rate
	}
	if _, ok := normalized[TierStandard]; !ok {
		return nil, ErrMissingStandardTier
	}
	return &Table{rates: normalized}, nil
}

// Default returns the built-in basic/standard/premium table.
func Default() *Table {
	t, _ := New(DefaultRates)
	return t
}

type ratesFile struct {
	Rates map[string]float64 `yaml:"rates"`
}

// LoadFile reads a YAML file of the form:
//
//	rates:
//	  basic: 120
//	  standard: 180
//	  premium: 240
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f ratesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rates file %s: %w", path, err)
	}
	return New(f.Rates)
}

// RateFor returns the rate for finish, falling back to the standard tier.
func (t *Table) RateFor(finish string) float64 {
	_, rate := t.Resolve(finish)
	return rate
}

// Resolve returns the tier actually used for finish along with its rate.
func (t *Table) Resolve(finish string) (string, float64) {
	key := normalizeTier(finish)
	if rate, ok := t.rates[key]; ok {
		return key, rate
	}
	return TierStandard, t.rates[TierStandard]
}

func (t *Table) Known(finish string) bool {
	_, ok := t.rates[normalizeTier(finish)]
	return ok
}

// Tiers lists the configured tiers in alphabetical order.
func (t *Table) Tiers() []string {
	out := make([]string, 0, len(t.rates))
	for k := range t.rates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalizeTier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
