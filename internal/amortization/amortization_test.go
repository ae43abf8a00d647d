package amortization

import (
	"math"
	"testing"

	"github.com/curtWhite/finance-game-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCarLoan(t *testing.T) {
	// 45k at 5% over 5 years, weekly compounding, monthly payments.
	sched, err := Compute(45000, 0.05, 5, Weekly, Monthly)
	require.NoError(t, err)

	assert.Equal(t, float64(60), sched.Payments)
	assert.InDelta(t, 849.3, sched.Payment, 0.2)
	// Payment is rounded to one decimal place.
	assert.Equal(t, math.Round(sched.Payment*10)/10, sched.Payment)
	// Totals agree with payment*n within rounding of both sides.
	assert.InDelta(t, sched.Payment*sched.Payments, sched.TotalPaid, 60)
	assert.InDelta(t, sched.TotalPaid-sched.LoanAmount, sched.TotalInterest, 1)
}

func TestComputeZeroRate(t *testing.T) {
	sched, err := Compute(1200, 0, 1, Monthly, Monthly)
	require.NoError(t, err)
	assert.Equal(t, 100.0, sched.Payment)
	assert.Equal(t, 1200.0, sched.TotalPaid)
	assert.Equal(t, 0.0, sched.TotalInterest)
}

func TestComputePaymentTimesNMatchesTotal(t *testing.T) {
	cases := []struct {
		p, r, term float64
		comp, pay  Frequency
	}{
		{10000, 0.07, 3, Monthly, Monthly},
		{250000, 0.04, 30, Monthly, Monthly},
		{5000, 0.18, 2, Daily, Weekly},
		{80000, 0.055, 10, Quarterly, Semiannual},
	}
	for _, c := range cases {
		sched, err := Compute(c.p, c.r, c.term, c.comp, c.pay)
		require.NoError(t, err)
		n := c.term * PaymentPeriods(c.pay)
		assert.Equal(t, n, sched.Payments)
		// Rounding of the payment can drift the product by up to 0.05*n,
		// plus the whole-unit rounding of the total itself.
		assert.InDelta(t, sched.Payment*n, sched.TotalPaid, 0.05*n+0.5)
		assert.Greater(t, sched.TotalInterest, 0.0)
	}
}

func TestComputeFrequencyFallbacks(t *testing.T) {
	// Unknown compounding falls back to weekly, unknown payment to monthly.
	withFallback, err := Compute(45000, 0.05, 5, "fortnightly", "biweekly")
	require.NoError(t, err)
	explicit, err := Compute(45000, 0.05, 5, Weekly, Monthly)
	require.NoError(t, err)
	// The schedule echoes the caller's frequency strings, so only the
	// numeric outputs must agree.
	assert.Equal(t, explicit.Payments, withFallback.Payments)
	assert.Equal(t, explicit.Payment, withFallback.Payment)
	assert.Equal(t, explicit.TotalPaid, withFallback.TotalPaid)
	assert.Equal(t, explicit.TotalInterest, withFallback.TotalInterest)
}

func TestComputeRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name       string
		p, r, term float64
	}{
		{"zero principal", 0, 0.05, 5},
		{"negative principal", -100, 0.05, 5},
		{"negative rate", 1000, -0.01, 5},
		{"zero term", 1000, 0.05, 0},
		{"nan rate", 1000, math.NaN(), 5},
		{"inf term", 1000, 0.05, math.Inf(1)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Compute(c.p, c.r, c.term, Monthly, Monthly)
			require.Error(t, err)
			assert.True(t, models.IsValidation(err))
		})
	}
}
