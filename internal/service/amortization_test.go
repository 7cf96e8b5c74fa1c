package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prestamax/loan-review-api/internal/models"
	appErrors "github.com/prestamax/loan-review-api/pkg/errors"
)

func TestAmortizeBiweekly(t *testing.T) {
	result, err := Amortize(50000, 12, 36, models.FrequencyBiweekly)
	require.NoError(t, err)

	assert.Equal(t, 24, result.TotalPeriods)
	assert.InDelta(t, 0.015, result.PeriodRate, 1e-12)
	assert.Equal(t, 2496.21, result.Payment)
	assert.Equal(t, 59909.04, result.TotalToPay)
	assert.Equal(t, 9909.04, result.TotalInterest)
}

func TestAmortizeMonthly(t *testing.T) {
	result, err := Amortize(100000, 24, 24, models.FrequencyMonthly)
	require.NoError(t, err)

	assert.Equal(t, 24, result.TotalPeriods)
	assert.InDelta(t, 0.02, result.PeriodRate, 1e-12)
	assert.Equal(t, 5287.11, result.Payment)
	assert.Equal(t, 126890.64, result.TotalToPay)
	assert.Equal(t, 26890.64, result.TotalInterest)
}

func TestAmortizeZeroRate(t *testing.T) {
	result, err := Amortize(12000, 6, 0, models.FrequencyMonthly)
	require.NoError(t, err)

	assert.Equal(t, 6, result.TotalPeriods)
	assert.Equal(t, 2000.00, result.Payment)
	assert.Equal(t, 12000.00, result.TotalToPay)
	assert.Equal(t, 0.00, result.TotalInterest)
}

func TestAmortizeHalfUpRounding(t *testing.T) {
	result, err := Amortize(20000, 12, 30, models.FrequencyMonthly)
	require.NoError(t, err)

	// Raw payment is 1949.7354...; half-up at the cent gives 1949.74 and
	// the totals derive from the rounded payment.
	assert.Equal(t, 1949.74, result.Payment)
	assert.Equal(t, 23396.88, result.TotalToPay)
	assert.Equal(t, 3396.88, result.TotalInterest)
}

func TestAmortizeRejectsBadInput(t *testing.T) {
	cases := []struct {
		name      string
		principal float64
		term      int
		rate      float64
		frequency models.PaymentFrequency
	}{
		{"zero principal", 0, 12, 36, models.FrequencyMonthly},
		{"negative principal", -5000, 12, 36, models.FrequencyMonthly},
		{"zero term", 50000, 0, 36, models.FrequencyMonthly},
		{"negative rate", 50000, 12, -1, models.FrequencyMonthly},
		{"unknown frequency", 50000, 12, 36, models.PaymentFrequency("WEEKLY")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Amortize(tc.principal, tc.term, tc.rate, tc.frequency)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
		})
	}
}
