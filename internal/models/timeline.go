package models

import "time"

// TimelineAction constants name the auditable review actions.
const (
	ActionFieldVerified       = "FIELD_VERIFIED"
	ActionFieldRejected       = "FIELD_REJECTED"
	ActionFieldUnverified     = "FIELD_UNVERIFIED"
	ActionDocumentApproved    = "DOCUMENT_APPROVED"
	ActionDocumentRejected    = "DOCUMENT_REJECTED"
	ActionDocumentUnapproved  = "DOCUMENT_UNAPPROVED"
	ActionDocumentUnrejected  = "DOCUMENT_UNREJECTED"
	ActionReferenceVerified   = "REFERENCE_VERIFIED"
	ActionBankAccountVerified = "BANK_ACCOUNT_VERIFIED"
	ActionStatusChanged       = "STATUS_CHANGED"
	ActionAssigned            = "ASSIGNED"
	ActionCounterOffered      = "COUNTER_OFFERED"
	ActionNoteAdded           = "NOTE_ADDED"
)

// FieldChangeMetadata describes a field-verification mutation.
type FieldChangeMetadata struct {
	Field      VerificationField  `json:"field"`
	FromStatus VerificationStatus `json:"from_status"`
	ToStatus   VerificationStatus `json:"to_status"`
	Method     VerificationMethod `json:"method,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

// DocumentChangeMetadata describes a document review mutation.
type DocumentChangeMetadata struct {
	DocumentID string                  `json:"document_id"`
	Type       DocumentType            `json:"type"`
	FromStatus DocumentStatus          `json:"from_status"`
	ToStatus   DocumentStatus          `json:"to_status"`
	Reason     DocumentRejectionReason `json:"reason,omitempty"`
	Comment    string                  `json:"comment,omitempty"`
}

// StatusChangeMetadata describes an application status transition.
type StatusChangeMetadata struct {
	FromStatus ApplicationStatus `json:"from_status"`
	ToStatus   ApplicationStatus `json:"to_status"`
	Note       string            `json:"note,omitempty"`
}

// CounterOfferMetadata describes an issued counter-offer.
type CounterOfferMetadata struct {
	Amount       float64          `json:"amount"`
	TermMonths   int              `json:"term_months"`
	InterestRate float64          `json:"interest_rate"`
	Frequency    PaymentFrequency `json:"frequency"`
	Payment      float64          `json:"payment"`
}

// ReferenceChangeMetadata describes a reference verification result.
type ReferenceChangeMetadata struct {
	ReferenceID string           `json:"reference_id"`
	Outcome     ReferenceOutcome `json:"outcome"`
	Notes       string           `json:"notes,omitempty"`
}

// BankAccountChangeMetadata describes a bank account toggle.
type BankAccountChangeMetadata struct {
	AccountID string `json:"account_id"`
	Verified  bool   `json:"verified"`
}

// TimelineMetadata is a tagged union of the known metadata shapes. Exactly
// one typed member is set per event; Extra preserves keys written by systems
// this service does not model.
type TimelineMetadata struct {
	Field        *FieldChangeMetadata       `json:"field,omitempty"`
	Document     *DocumentChangeMetadata    `json:"document,omitempty"`
	Status       *StatusChangeMetadata      `json:"status,omitempty"`
	CounterOffer *CounterOfferMetadata      `json:"counter_offer,omitempty"`
	Reference    *ReferenceChangeMetadata   `json:"reference,omitempty"`
	BankAccount  *BankAccountChangeMetadata `json:"bank_account,omitempty"`
	Extra        map[string]interface{}     `json:"extra,omitempty"`
}

// TimelineEvent is one entry in an application's audit feed. Appended after
// every successful mutation.
type TimelineEvent struct {
	ID            string    `db:"id" json:"id"`
	ApplicationID string    `db:"application_id" json:"application_id"`
	Action        string    `db:"action" json:"action"`
	Description   string    `db:"description" json:"description"`
	ActorID       string    `db:"actor_id" json:"actor_id"`
	ActorName     string    `db:"actor_name" json:"actor_name"`
	MetadataRaw   []byte    `db:"metadata" json:"-"`
	Metadata      *TimelineMetadata `db:"-" json:"metadata,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Note is a free-form staff annotation on an application.
type Note struct {
	ID            string    `db:"id" json:"id"`
	ApplicationID string    `db:"application_id" json:"application_id"`
	Body          string    `db:"body" json:"body"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
