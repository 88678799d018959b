package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looplink/stickers/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	monday    = time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)
	wednesday = time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC)
	friday    = time.Date(2025, time.January, 3, 10, 0, 0, 0, time.UTC)
)

func item(quantity int64, unitPrice, category string) engine.TransactionItem {
	return engine.TransactionItem{
		SKU:       "SKU-1",
		Name:      "Item 1",
		Quantity:  quantity,
		UnitPrice: decimal.RequireFromString(unitPrice),
		Category:  category,
	}
}

// =============================================================================
// CALCULATION RULE
// =============================================================================

func TestCalculate_Table(t *testing.T) {
	tests := []struct {
		name        string
		items       []engine.TransactionItem
		asOf        time.Time
		wantTotal   string
		wantAwarded int64
	}{
		{
			name:        "empty basket",
			items:       nil,
			asOf:        monday,
			wantTotal:   "0",
			wantAwarded: 0,
		},
		{
			name:        "one sticker per ten dollars",
			items:       []engine.TransactionItem{item(2, "10.00", "grocery")},
			asOf:        monday,
			wantTotal:   "20.00",
			wantAwarded: 2,
		},
		{
			name:        "just under the next sticker",
			items:       []engine.TransactionItem{item(1, "19.99", "grocery")},
			asOf:        monday,
			wantTotal:   "19.99",
			wantAwarded: 1,
		},
		{
			name:        "zero quantity is permitted",
			items:       []engine.TransactionItem{item(0, "99.99", "grocery")},
			asOf:        monday,
			wantTotal:   "0.00",
			wantAwarded: 0,
		},
		{
			name: "promo bonus is one sticker per unit regardless of price",
			items: []engine.TransactionItem{
				item(3, "0.50", "promo"),
			},
			asOf:        monday,
			wantTotal:   "1.50",
			wantAwarded: 3,
		},
		{
			// total 50.00 -> base 5, promo 5, raw 10, capped to 5
			name:        "promo plus base capped at five",
			items:       []engine.TransactionItem{item(5, "10.00", "promo")},
			asOf:        monday,
			wantTotal:   "50.00",
			wantAwarded: 5,
		},
		{
			// base 10, weekday floor(10*0.5)=5, raw 15, capped to 5
			name:        "wednesday bonus capped at five",
			items:       []engine.TransactionItem{item(1, "100.00", "grocery")},
			asOf:        wednesday,
			wantTotal:   "100.00",
			wantAwarded: 5,
		},
		{
			// base 3, friday bonus floor(1.5)=1
			name:        "friday bonus floors the half",
			items:       []engine.TransactionItem{item(1, "30.00", "grocery")},
			asOf:        friday,
			wantTotal:   "30.00",
			wantAwarded: 4,
		},
		{
			name:        "no weekday bonus on monday",
			items:       []engine.TransactionItem{item(1, "30.00", "grocery")},
			asOf:        monday,
			wantTotal:   "30.00",
			wantAwarded: 3,
		},
		{
			name: "category match is exact",
			items: []engine.TransactionItem{
				item(2, "5.00", "Promo"),
				item(2, "5.00", "promotion"),
			},
			asOf:        monday,
			wantTotal:   "20.00",
			wantAwarded: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Calculate(tt.items, tt.asOf)
			require.NoError(t, err)

			assert.True(t, result.TotalAmount.Equal(decimal.RequireFromString(tt.wantTotal)),
				"total: got %s, want %s", result.TotalAmount, tt.wantTotal)
			assert.Equal(t, tt.wantAwarded, result.StickersAwarded)
		})
	}
}

func TestCalculate_Breakdown(t *testing.T) {
	// GIVEN: one promo item, quantity 5, unit price 10.00, on a Monday
	// THEN: total 50.00, base 5, promo 5, weekday 0, raw 10 capped to 5

	result, err := engine.Calculate([]engine.TransactionItem{item(5, "10.00", "promo")}, monday)
	require.NoError(t, err)

	assert.Equal(t, int64(5), result.BaseStickers)
	assert.Equal(t, int64(5), result.PromoBonus)
	assert.Equal(t, int64(0), result.WeekdayBonus)
	assert.Equal(t, int64(5), result.StickersAwarded)
}

func TestCalculate_NegativeQuantity_FailsValidation(t *testing.T) {
	_, err := engine.Calculate([]engine.TransactionItem{item(-1, "10.00", "grocery")}, monday)

	assert.ErrorIs(t, err, engine.ErrValidation)
	var vErr *engine.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "items[0].quantity", vErr.Field)
}

func TestCalculate_NegativeUnitPrice_FailsValidation(t *testing.T) {
	_, err := engine.Calculate([]engine.TransactionItem{
		item(1, "10.00", "grocery"),
		item(1, "-5.00", "grocery"),
	}, monday)

	assert.ErrorIs(t, err, engine.ErrValidation)
	var vErr *engine.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "items[1].unit_price", vErr.Field)
}

func TestCalculate_AwardAlwaysWithinCap(t *testing.T) {
	// Sweep a range of baskets on every weekday; the award must stay in [0, 5].
	for day := 0; day < 7; day++ {
		asOf := monday.AddDate(0, 0, day)
		for qty := int64(0); qty <= 20; qty++ {
			for _, category := range []string{"grocery", "promo"} {
				result, err := engine.Calculate(
					[]engine.TransactionItem{item(qty, "9.99", category)}, asOf)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, result.StickersAwarded, int64(0))
				assert.LessOrEqual(t, result.StickersAwarded, int64(engine.MaxStickersPerTransaction))
			}
		}
	}
}
