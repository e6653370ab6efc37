package pricing

import (
	"errors"
	"math"
	"testing"

	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/domain/rates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestComputeKitchenAndBath(t *testing.T) {
	table, err := rates.New(map[string]float64{"premium": 240, "standard": 180})
	require.NoError(t, err)

	items, subtotal, err := Compute(table, []entities.RoomSpec{
		{Name: "Kitchen", AreaSqft: 150, Finish: "premium"},
		{Name: "Bath", AreaSqft: 80, Finish: "standard"},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, 36000.00, items[0].TotalCost)
	assert.Equal(t, 240.0, items[0].UnitCost)
	assert.Equal(t, 14400.00, items[1].TotalCost)
	assert.Equal(t, 50400.00, subtotal)
}

func TestComputeDefaultsFinishToStandard(t *testing.T) {
	items, subtotal, err := Compute(rates.Default(), []entities.RoomSpec{
		{Name: "  ", AreaSqft: 10.005},
		{Name: "Loft", AreaSqft: 1, Finish: "gold"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Room", items[0].Name)
	assert.Equal(t, rates.TierStandard, items[0].Finish)
	assert.Equal(t, 1800.9, items[0].TotalCost)
	assert.Equal(t, rates.TierStandard, items[1].Finish)
	assert.Equal(t, 1980.9, subtotal)
}

func TestComputeEmptyInput(t *testing.T) {
	items, subtotal, err := Compute(rates.Default(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0.0, subtotal)
}

func TestComputeRejectsInvalidArea(t *testing.T) {
	cases := []struct {
		name string
		area float64
	}{
		{name: "negative", area: -1},
		{name: "nan", area: math.NaN()},
		{name: "inf", area: math.Inf(1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Compute(rates.Default(), []entities.RoomSpec{
				{Name: "Ok", AreaSqft: 1},
				{Name: "Bad", AreaSqft: tc.area},
			})
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, 1, vErr.Index)
			assert.Equal(t, "area_sqft", vErr.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNormalizeDraftRecomputesTotals(t *testing.T) {
	items, subtotal, err := NormalizeDraft(entities.Draft{
		Items: []entities.DraftItem{
			{Name: "Flooring", Quantity: ptr(100), UnitCost: ptr(12.345), TotalCost: ptr(99999)},
			{Name: "Permit", TotalCost: ptr(350.129)},
			{Name: "Cleanup", Quantity: ptr(1)},
			{Name: " Roofing ", Finish: "PREMIUM", Quantity: ptr(20), UnitCost: ptr(10)},
		},
		Subtotal: ptr(1),
	})
	require.NoError(t, err)

	assert.Equal(t, 1234.5, items[0].TotalCost)
	assert.Equal(t, 350.13, items[1].TotalCost)
	assert.Equal(t, 0.0, items[2].TotalCost)
	assert.Equal(t, "Roofing", items[3].Name)
	assert.Equal(t, "premium", items[3].Finish)
	assert.Equal(t, 200.0, items[3].TotalCost)
	assert.Equal(t, 1784.63, subtotal)
}

func TestNormalizeDraftRejectsMalformedItems(t *testing.T) {
	_, _, err := NormalizeDraft(entities.Draft{Items: []entities.DraftItem{{Name: ""}}})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "name", vErr.Field)

	_, _, err = NormalizeDraft(entities.Draft{Items: []entities.DraftItem{{Name: "A"}, {Name: "B", Quantity: ptr(-2)}}})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, 1, vErr.Index)
	assert.Equal(t, "qty", vErr.Field)

	_, _, err = NormalizeDraft(entities.Draft{Items: []entities.DraftItem{{Name: "A", TotalCost: ptr(-5)}}})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "total_cost", vErr.Field)
}

func TestSubtotalMatchesRoundedSum(t *testing.T) {
	items := []entities.Item{{TotalCost: 0.1}, {TotalCost: 0.2}, {TotalCost: 0.005}}
	assert.Equal(t, 0.31, Subtotal(items))
	assert.Equal(t, 2.68, Round2(2.675))
}
