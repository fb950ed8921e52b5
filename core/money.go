package core

import (
	"math"

	"github.com/shopspring/decimal"
)

const bidPrecision int32 = 3 // 3 decimal places for bid amounts (0.001 precision)

// ClampBid sanitizes a raw bid amount for submission: non-finite and negative
// values clamp to 0, everything else is rounded to bidPrecision.
// Uses decimal arithmetic to avoid floating-point rounding surprises.
func ClampBid(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0
	}

	rounded, _ := decimal.NewFromFloat(amount).Round(bidPrecision).Float64()
	return rounded
}

// SettleBalance returns balance + (1 if clicked, else 0) - clearingPrice.
// Decimal arithmetic keeps repeated settlements from accumulating
// floating-point drift across a long run.
func SettleBalance(balance float64, clicked bool, clearingPrice float64) float64 {
	reward := decimal.Zero
	if clicked {
		reward = decimal.NewFromInt(1)
	}

	result, _ := decimal.NewFromFloat(balance).
		Add(reward).
		Sub(decimal.NewFromFloat(clearingPrice)).
		Float64()
	return result
}
