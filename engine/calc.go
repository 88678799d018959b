/*
calc.go - Deterministic basket-to-stickers calculation

PURPOSE:
  Converts a basket of line items into (total_amount, stickers_awarded).
  Pure function: no side effects, no clock reads. The calendar date used
  for the weekday bonus is an explicit parameter so the rule is
  deterministically testable.

RULE:
  1. quantity < 0 or unit_price < 0 fails validation
  2. total_amount  = sum(quantity * unit_price), exact decimal arithmetic
  3. promo_bonus   = sum(quantity) over items with category == "promo"
  4. base_stickers = floor(total_amount / 10)
  5. weekday_bonus = floor(base_stickers * 0.5) on Wednesday/Friday, else 0
  6. stickers_awarded = min(base + promo + weekday, 5)
*/
package engine

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// MaxStickersPerTransaction caps how many stickers a single transaction
// can award, regardless of basket size or bonuses.
const MaxStickersPerTransaction = 5

// PromoCategory is the item category that earns 1 bonus sticker per unit,
// regardless of price. Exact string match.
const PromoCategory = "promo"

var earnRate = decimal.NewFromInt(10) // 1 base sticker per $10

// CalcResult is the outcome of the calculation rule, including the
// breakdown before capping.
type CalcResult struct {
	TotalAmount     decimal.Decimal
	BaseStickers    int64
	PromoBonus      int64
	WeekdayBonus    int64
	StickersAwarded int64
}

// Calculate maps a basket to its earned-stickers amount as of the given
// calendar date. StickersAwarded is always in [0, MaxStickersPerTransaction].
func Calculate(items []TransactionItem, asOf time.Time) (CalcResult, error) {
	total := decimal.Zero
	var promoBonus int64

	for i, item := range items {
		if item.Quantity < 0 {
			return CalcResult{}, &ValidationError{
				Field:  itemField(i, "quantity"),
				Reason: "cannot be negative",
			}
		}
		if item.UnitPrice.IsNegative() {
			return CalcResult{}, &ValidationError{
				Field:  itemField(i, "unit_price"),
				Reason: "cannot be negative",
			}
		}

		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))

		if item.Category == PromoCategory {
			promoBonus += item.Quantity
		}
	}

	base := total.Div(earnRate).Floor().IntPart()

	var weekdayBonus int64
	if wd := asOf.Weekday(); wd == time.Wednesday || wd == time.Friday {
		weekdayBonus = base / 2 // floor(base * 0.5)
	}

	awarded := base + promoBonus + weekdayBonus
	if awarded > MaxStickersPerTransaction {
		awarded = MaxStickersPerTransaction
	}

	return CalcResult{
		TotalAmount:     total,
		BaseStickers:    base,
		PromoBonus:      promoBonus,
		WeekdayBonus:    weekdayBonus,
		StickersAwarded: awarded,
	}, nil
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}
