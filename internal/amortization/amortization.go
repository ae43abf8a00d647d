package amortization

import (
	"math"

	"github.com/curtWhite/finance-game-server/internal/models"
	"github.com/shopspring/decimal"
)

// Frequency names a compounding or payment cadence.
type Frequency string

const (
	Yearly     Frequency = "yearly"
	Semiannual Frequency = "semiannual"
	Quarterly  Frequency = "quarterly"
	Monthly    Frequency = "monthly"
	Weekly     Frequency = "weekly"
	Daily      Frequency = "daily"
)

var periodsPerYear = map[Frequency]float64{
	Yearly:     1,
	Semiannual: 2,
	Quarterly:  4,
	Monthly:    12,
	Weekly:     52,
	Daily:      365,
}

// CompoundingPeriods resolves a compounding frequency to periods per year.
// Unrecognized values fall back to weekly. The fallback is load-bearing:
// stored liabilities predate the frequency field and must keep computing the
// same payment.
func CompoundingPeriods(f Frequency) float64 {
	if p, ok := periodsPerYear[f]; ok {
		return p
	}
	return periodsPerYear[Weekly]
}

// PaymentPeriods resolves a payment frequency to periods per year.
// Unrecognized values fall back to monthly.
func PaymentPeriods(f Frequency) float64 {
	if p, ok := periodsPerYear[f]; ok {
		return p
	}
	return periodsPerYear[Monthly]
}

// Schedule is the computed payment profile of a loan.
type Schedule struct {
	LoanAmount    float64   `json:"loan_amount"`
	InterestRate  float64   `json:"interest_rate"`
	Term          float64   `json:"amortization_term"`
	Compounding   Frequency `json:"compounding_frequency"`
	PaymentFreq   Frequency `json:"payment_frequency"`
	Payments      float64   `json:"payments"`
	Payment       float64   `json:"payment"`
	TotalPaid     float64   `json:"total_amount"`
	TotalInterest float64   `json:"interest_payment"`
}

// Compute converts a loan's terms into a periodic payment and totals.
//
// The annual rate is compounded compPerYear times, converted to an effective
// per-payment-period rate, and run through the standard annuity formula. The
// payment is rounded to one decimal place, the totals to whole units.
func Compute(loanAmount, annualRate, termYears float64, comp, pay Frequency) (Schedule, error) {
	if math.IsNaN(loanAmount) || math.IsInf(loanAmount, 0) || loanAmount <= 0 {
		return Schedule{}, models.Invalid("loan amount must be a positive number, got %v", loanAmount)
	}
	if math.IsNaN(annualRate) || math.IsInf(annualRate, 0) || annualRate < 0 {
		return Schedule{}, models.Invalid("interest rate must be a non-negative number, got %v", annualRate)
	}
	if math.IsNaN(termYears) || math.IsInf(termYears, 0) || termYears <= 0 {
		return Schedule{}, models.Invalid("amortization term must be a positive number of years, got %v", termYears)
	}

	compPerYear := CompoundingPeriods(comp)
	payPerYear := PaymentPeriods(pay)

	n := termYears * payPerYear
	rComp := annualRate / compPerYear
	rPay := math.Pow(1+rComp, compPerYear/payPerYear) - 1

	var payment float64
	if rPay == 0 {
		payment = loanAmount / n
	} else {
		growth := math.Pow(1+rPay, n)
		payment = loanAmount * (rPay * growth) / (growth - 1)
	}

	totalPaid := payment * n

	return Schedule{
		LoanAmount:    loanAmount,
		InterestRate:  annualRate,
		Term:          termYears,
		Compounding:   comp,
		PaymentFreq:   pay,
		Payments:      n,
		Payment:       round(payment, 1),
		TotalPaid:     round(totalPaid, 0),
		TotalInterest: round(totalPaid-loanAmount, 0),
	}, nil
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
