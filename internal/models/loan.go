package models

import "time"

// PaymentFrequency is the repayment cadence of a loan.
type PaymentFrequency string

const (
	FrequencyMonthly  PaymentFrequency = "MONTHLY"
	FrequencyBiweekly PaymentFrequency = "BIWEEKLY"
)

// IsValid reports whether the frequency is recognized.
func (f PaymentFrequency) IsValid() bool {
	return f == FrequencyMonthly || f == FrequencyBiweekly
}

// PeriodsPerYear returns how many payment periods a year holds.
func (f PaymentFrequency) PeriodsPerYear() int {
	if f == FrequencyBiweekly {
		return 24
	}
	return 12
}

// Loan holds the requested terms of an application plus any counter-offered
// amount approved during review.
type Loan struct {
	ApplicationID    string           `db:"application_id" json:"application_id"`
	RequestedAmount  float64          `db:"requested_amount" json:"requested_amount"`
	ApprovedAmount   *float64         `db:"approved_amount" json:"approved_amount,omitempty"`
	TermMonths       int              `db:"term_months" json:"term_months"`
	PaymentFrequency PaymentFrequency `db:"payment_frequency" json:"payment_frequency"`
	InterestRate     float64          `db:"interest_rate" json:"interest_rate"`
	MonthlyPayment   float64          `db:"monthly_payment" json:"monthly_payment"`
	TotalToPay       float64          `db:"total_to_pay" json:"total_to_pay"`
	ProductType      string           `db:"product_type" json:"product_type"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// CounterOffer is an alternate set of terms proposed by staff during review,
// pending applicant acceptance.
type CounterOffer struct {
	ID            string           `db:"id" json:"id"`
	ApplicationID string           `db:"application_id" json:"application_id"`
	Amount        float64          `db:"amount" json:"amount"`
	TermMonths    int              `db:"term_months" json:"term_months"`
	InterestRate  float64          `db:"interest_rate" json:"interest_rate"`
	Frequency     PaymentFrequency `db:"frequency" json:"frequency"`
	Payment       float64          `db:"payment" json:"payment"`
	TotalToPay    float64          `db:"total_to_pay" json:"total_to_pay"`
	TotalInterest float64          `db:"total_interest" json:"total_interest"`
	Reason        string           `db:"reason" json:"reason,omitempty"`
	CreatedBy     string           `db:"created_by" json:"created_by"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// AmortizationResult is the output of the payment calculator. All monetary
// figures are rounded half-up at the cent.
type AmortizationResult struct {
	TotalPeriods  int     `json:"total_periods"`
	PeriodRate    float64 `json:"period_rate"`
	Payment       float64 `json:"payment"`
	TotalToPay    float64 `json:"total_to_pay"`
	TotalInterest float64 `json:"total_interest"`
}
