package mathutil

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, expected float64
	}{
		{50, 0, 100, 50},
		{-5, 0, 100, 0},
		{120, 0, 100, 100},
		{math.NaN(), 0, 100, 0},
		{math.Inf(1), 0, 100, 100},
	}

	for _, tt := range tests {
		if got := Clamp(tt.val, tt.lo, tt.hi); got != tt.expected {
			t.Errorf("Clamp(%v, %v, %v) = %v, expected %v", tt.val, tt.lo, tt.hi, got, tt.expected)
		}
	}
}

func TestDivide(t *testing.T) {
	if q, ok := Divide(10, 4); !ok || q != 2.5 {
		t.Errorf("Divide(10, 4) = %v, %v", q, ok)
	}
	if q, ok := Divide(10, 0); ok || q != 0 {
		t.Errorf("Divide(10, 0) = %v, %v; expected 0, false", q, ok)
	}
}

func TestFloorRatio(t *testing.T) {
	tests := []struct {
		name     string
		num, den float64
		expected int
		ok       bool
	}{
		{name: "exact", num: 1000, den: 300, expected: 3, ok: true},
		{name: "float noise below integer", num: 0.3 * 3, den: 0.9, expected: 1, ok: true},
		{name: "height floors", num: 23, den: 3, expected: 7, ok: true},
		{name: "zero denominator", num: 1, den: 0, expected: 0, ok: false},
		{name: "infinite numerator", num: math.Inf(1), den: 40, expected: 0, ok: false},
		{name: "quotient beyond int range", num: 1e300, den: 40, expected: 0, ok: false},
		{name: "NaN numerator", num: math.NaN(), den: 40, expected: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FloorRatio(tt.num, tt.den)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("FloorRatio(%v, %v) = %d, %v; expected %d, %v", tt.num, tt.den, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestFloorRatioNoise(t *testing.T) {
	// 0.7-0.4 lands just below 0.3
	a, b := 0.7, 0.4
	num := a - b
	if got, _ := FloorRatio(num, 0.1); got != 3 {
		t.Errorf("FloorRatio(%v, 0.1) = %d, expected 3", num, got)
	}
}

func TestApplyPercentage(t *testing.T) {
	if got := ApplyPercentage(500, 60); got != 300 {
		t.Errorf("ApplyPercentage(500, 60) = %v, expected 300", got)
	}
	if got := ApplyPercentage(500, 0); got != 0 {
		t.Errorf("ApplyPercentage(500, 0) = %v, expected 0", got)
	}
}

func TestFinite(t *testing.T) {
	tests := map[float64]bool{
		0:            true,
		1e308:        true,
		math.Inf(1):  false,
		math.Inf(-1): false,
	}
	for v, expected := range tests {
		if got := Finite(v); got != expected {
			t.Errorf("Finite(%v) = %v, expected %v", v, got, expected)
		}
	}
	if Finite(math.NaN()) {
		t.Error("Finite(NaN) = true, expected false")
	}
}

func TestInIntRange(t *testing.T) {
	if !InIntRange(1e18) {
		t.Error("InIntRange(1e18) = false, expected true")
	}
	if InIntRange(math.MaxInt64) {
		t.Error("InIntRange(2^63) = true, expected false")
	}
	if InIntRange(math.NaN()) {
		t.Error("InIntRange(NaN) = true, expected false")
	}
}
