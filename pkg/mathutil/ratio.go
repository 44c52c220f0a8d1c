// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/cabida/pkg/constants"
)

// Clamp bounds val to [lo, hi]. NaN maps to lo.
func Clamp(val, lo, hi float64) float64 {
	if math.IsNaN(val) || val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Divide returns num/den. The boolean is false when den is zero, in which
// case the quotient is reported as 0.
func Divide(num, den float64) (float64, bool) {
	if den == 0 {
		return 0, false
	}
	return num / den, true
}

// FloorRatio returns floor(num/den) as an int, tolerating float noise just
// below an integer. The boolean is false when den is zero or the quotient is
// NaN or outside the int range.
func FloorRatio(num, den float64) (int, bool) {
	q, ok := Divide(num, den)
	if !ok {
		return 0, false
	}
	f := math.Floor(q + constants.FloorEpsilon)
	if !InIntRange(f) {
		return 0, false
	}
	return int(f), true
}

// InIntRange reports whether f converts to int without overflow.
func InIntRange(f float64) bool {
	return !math.IsNaN(f) && f >= math.MinInt64 && f < math.MaxInt64
}

// Finite reports whether f is neither NaN nor infinite.
func Finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * percentage / constants.PercentageMultiplier
}
