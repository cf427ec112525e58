package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		rate   float64
		want   int64
	}{
		{"five percent of 240 dollars", 240000, 5, 12000},
		{"six and a half percent of 2600 dollars", 260000, 6.5, 16900},
		{"rounds half up", 1250, 5, 63}, // 62.5 cents
		{"rounds down below half", 1249, 5, 62},
		{"zero rate", 100000, 0, 0},
		{"zero amount", 0, 10, 0},
		{"fractional rate on one dollar", 100, 0.5, 1}, // 0.5 cents rounds up
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentOf(tt.amount, tt.rate))
		})
	}
}

func TestPercentOfRoundsOnceAtTheEnd(t *testing.T) {
	// 333 cents at 3.33% is 11.0889 cents; a naive float pipeline that
	// rounds intermediates would drift.
	assert.Equal(t, int64(11), PercentOf(333, 3.33))
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "13.50", FormatCents(1350))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "-15.00", FormatCents(-1500))
	assert.Equal(t, "2400.00", FormatCents(240000))
}

func TestGenerateLinkCode(t *testing.T) {
	code, err := GenerateTrackableLinkCode()
	assert.NoError(t, err)
	assert.Len(t, code, 9)
	assert.Equal(t, "TL-", code[:3])

	promo, err := GeneratePromoCode()
	assert.NoError(t, err)
	assert.Equal(t, "PC-", promo[:3])

	// Codes must differ across calls.
	other, err := GenerateTrackableLinkCode()
	assert.NoError(t, err)
	assert.NotEqual(t, code, other)
}
