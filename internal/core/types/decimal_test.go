package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestClampNonNegative(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5", "5"},
		{"0", "0"},
		{"-0.5", "0"},
		{"-8", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ClampNonNegative(d(tt.in))
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}
}

func TestLineValue(t *testing.T) {
	assert.True(t, LineValue(d("-3"), d("9")).Equal(d("27")))
	assert.True(t, LineValue(d("2.5"), d("4")).Equal(d("10")))
	assert.True(t, LineValue(d("-5"), decimal.Zero).IsZero())
}

func TestWithinTolerance(t *testing.T) {
	tol := d("0.001")
	assert.True(t, WithinTolerance(d("10"), d("10.001"), tol))
	assert.True(t, WithinTolerance(d("10.0005"), d("10"), tol))
	assert.False(t, WithinTolerance(d("10"), d("10.002"), tol))
}

func TestFirstNonNil(t *testing.T) {
	cost := d("2")
	assert.True(t, FirstNonNil(nil, &cost).Equal(cost))
	assert.True(t, FirstNonNil(nil, nil).IsZero())
}
