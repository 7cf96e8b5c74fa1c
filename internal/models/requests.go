package models

// VerifyFieldRequest targets one registry field for manual verification.
type VerifyFieldRequest struct {
	Field VerificationField `json:"field" validate:"required"`
}

// RejectFieldRequest marks a field as confirmed incorrect.
type RejectFieldRequest struct {
	Field  VerificationField `json:"field" validate:"required"`
	Reason string            `json:"reason" validate:"required"`
}

// UnverifyFieldRequest rolls a field back to pending.
type UnverifyFieldRequest struct {
	Field  VerificationField `json:"field" validate:"required"`
	Reason string            `json:"reason" validate:"required"`
}

// RejectDocumentRequest rejects an uploaded document.
type RejectDocumentRequest struct {
	Reason  DocumentRejectionReason `json:"reason" validate:"required"`
	Comment string                  `json:"comment"`
}

// ReferenceOutcomeRequest records the result of a reference call.
type ReferenceOutcomeRequest struct {
	Outcome ReferenceOutcome `json:"outcome" validate:"required"`
	Notes   string           `json:"notes"`
}

// ChangeStatusRequest moves an application to a new status.
type ChangeStatusRequest struct {
	Status ApplicationStatus `json:"status" validate:"required"`
	Note   string            `json:"note"`
}

// AssignRequest assigns an application to a staff member.
type AssignRequest struct {
	StaffUserID string `json:"staff_user_id" validate:"required"`
}

// CounterOfferRequest proposes alternate loan terms during review.
type CounterOfferRequest struct {
	Amount       float64          `json:"amount" validate:"required,gt=0"`
	TermMonths   int              `json:"term_months" validate:"required,gt=0"`
	InterestRate float64          `json:"interest_rate" validate:"gte=0"`
	Frequency    PaymentFrequency `json:"frequency" validate:"required"`
	Reason       string           `json:"reason"`
}

// AddNoteRequest attaches a free-form note to an application.
type AddNoteRequest struct {
	Body string `json:"body" validate:"required"`
}
