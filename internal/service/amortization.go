package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/prestamax/loan-review-api/internal/models"
	appErrors "github.com/prestamax/loan-review-api/pkg/errors"
)

// Amortize computes the per-period payment for the given terms using the
// standard amortized-payment formula:
//
//	payment = P * r*(1+r)^n / ((1+r)^n - 1)
//
// where r is the per-period rate and n the total number of periods. A zero
// rate degenerates to straight division. Monetary outputs are rounded
// half-up at the cent; totals are derived from the rounded payment so they
// match what the borrower actually pays.
func Amortize(principal float64, termMonths int, annualRate float64, frequency models.PaymentFrequency) (models.AmortizationResult, error) {
	if principal <= 0 {
		return models.AmortizationResult{}, appErrors.Clone(appErrors.ErrValidation, "principal must be positive")
	}
	if termMonths <= 0 {
		return models.AmortizationResult{}, appErrors.Clone(appErrors.ErrValidation, "term must be positive")
	}
	if annualRate < 0 {
		return models.AmortizationResult{}, appErrors.Clone(appErrors.ErrValidation, "interest rate cannot be negative")
	}
	if !frequency.IsValid() {
		return models.AmortizationResult{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown payment frequency %q", frequency))
	}

	totalPeriods := termMonths
	if frequency == models.FrequencyBiweekly {
		totalPeriods = termMonths * 2
	}

	p := decimal.NewFromFloat(principal)
	periodRate := decimal.NewFromFloat(annualRate).
		Div(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(frequency.PeriodsPerYear())))

	var payment decimal.Decimal
	if periodRate.IsZero() {
		payment = p.Div(decimal.NewFromInt(int64(totalPeriods)))
	} else {
		one := decimal.NewFromInt(1)
		compound := one.Add(periodRate).Pow(decimal.NewFromInt(int64(totalPeriods)))
		payment = p.Mul(periodRate).Mul(compound).Div(compound.Sub(one))
	}

	payment = payment.Round(2)
	totalToPay := payment.Mul(decimal.NewFromInt(int64(totalPeriods))).Round(2)
	totalInterest := totalToPay.Sub(p).Round(2)

	rate, _ := periodRate.Float64()
	paymentF, _ := payment.Float64()
	totalF, _ := totalToPay.Float64()
	interestF, _ := totalInterest.Float64()
	return models.AmortizationResult{
		TotalPeriods:  totalPeriods,
		PeriodRate:    rate,
		Payment:       paymentF,
		TotalToPay:    totalF,
		TotalInterest: interestF,
	}, nil
}
