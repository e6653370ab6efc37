// Package pricing computes line-item costs and keeps totals consistent with items.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/domain/rates"

	"github.com/shopspring/decimal"
)

const (
	RoomScope = "Room finish"
	UnitSqft  = "sqft"
)

var ErrValidation = errors.New("validation error")

// ValidationError names the offending input index and field.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("item %d: %s %s", e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Subtotal returns round2(sum of item totals).
func Subtotal(items []entities.Item) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.TotalCost))
	}
	return sum.Round(2).InexactFloat64()
}

// LineTotal returns round2(quantity * unitCost).
func LineTotal(quantity, unitCost float64) float64 {
	return decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(unitCost)).Round(2).InexactFloat64()
}

// Compute prices every room with the rate of its finish tier.
// Unknown or missing finishes are priced (and reported) as standard.
func Compute(table *rates.Table, rooms []entities.RoomSpec) ([]entities.Item, float64, error) {
	items := make([]entities.Item, 0, len(rooms))
	for i, r := range rooms {
		if err := checkAmount(i, "area_sqft", r.AreaSqft); err != nil {
			return nil, 0, err
		}
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = "Room"
		}
		tier, rate := table.Resolve(r.Finish)
		items = append(items, entities.Item{
			Name:      name,
			Scope:     RoomScope,
			Quantity:  r.AreaSqft,
			Unit:      UnitSqft,
			Finish:    tier,
			UnitCost:  rate,
			TotalCost: LineTotal(r.AreaSqft, rate),
		})
	}
	return items, Subtotal(items), nil
}

// NormalizeDraft re-derives item totals from quantity x unit cost when both are
// present, falling back to the supplied total only when a factor is missing.
func NormalizeDraft(draft entities.Draft) ([]entities.Item, float64, error) {
	items := make([]entities.Item, 0, len(draft.Items))
	for i, d := range draft.Items {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, 0, &ValidationError{Index: i, Field: "name", Reason: "is required"}
		}
		it := entities.Item{
			Name:   name,
			Scope:  strings.TrimSpace(d.Scope),
			Unit:   strings.TrimSpace(d.Unit),
			Finish: strings.ToLower(strings.TrimSpace(d.Finish)),
			Notes:  strings.TrimSpace(d.Notes),
		}
		if d.Quantity != nil {
			if err := checkAmount(i, "qty", *d.Quantity); err != nil {
				return nil, 0, err
			}
			it.Quantity = *d.Quantity
		}
		if d.UnitCost != nil {
			if err := checkAmount(i, "unit_cost", *d.UnitCost); err != nil {
				return nil, 0, err
			}
			it.UnitCost = *d.UnitCost
		}

		switch {
		case d.Quantity != nil && d.UnitCost != nil:
			it.TotalCost = LineTotal(it.Quantity, it.UnitCost)
		case d.TotalCost != nil:
			if err := checkAmount(i, "total_cost", *d.TotalCost); err != nil {
				return nil, 0, err
			}
			it.TotalCost = Round2(*d.TotalCost)
		}
		items = append(items, it)
	}
	return items, Subtotal(items), nil
}

func checkAmount(index int, field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Index: index, Field: field, Reason: "must be a number"}
	}
	if v < 0 {
		return &ValidationError{Index: index, Field: field, Reason: "must not be negative"}
	}
	return nil
}
