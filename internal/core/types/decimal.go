// Package types provides decimal helpers shared by ledger quantities and costs.
package types

import (
	"github.com/shopspring/decimal"
)

// ClampNonNegative returns d, or zero when d is negative.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// LineValue is abs(qty) * unitCost.
func LineValue(qty, unitCost decimal.Decimal) decimal.Decimal {
	return qty.Abs().Mul(unitCost)
}

// WithinTolerance reports whether |a - b| <= tol.
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}

// FirstNonNil returns the first non-nil value, or zero.
func FirstNonNil(values ...*decimal.Decimal) decimal.Decimal {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return decimal.Zero
}
