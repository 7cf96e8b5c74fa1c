package models

import "time"

// ReferenceOutcome is the result of a verification call to an applicant's
// personal reference. References have no lock concept; outcomes are always
// staff-entered and freely overwritable.
type ReferenceOutcome string

const (
	ReferencePending     ReferenceOutcome = "PENDING"
	ReferenceVerified    ReferenceOutcome = "VERIFIED"
	ReferenceNotVerified ReferenceOutcome = "NOT_VERIFIED"
	ReferenceNoAnswer    ReferenceOutcome = "NO_ANSWER"
)

var referenceOutcomes = map[ReferenceOutcome]struct{}{
	ReferencePending: {}, ReferenceVerified: {},
	ReferenceNotVerified: {}, ReferenceNoAnswer: {},
}

// IsValid reports whether the outcome is recognized.
func (o ReferenceOutcome) IsValid() bool {
	_, ok := referenceOutcomes[o]
	return ok
}

// Reference is a personal reference supplied by the applicant.
type Reference struct {
	ID            string           `db:"id" json:"id"`
	ApplicationID string           `db:"application_id" json:"application_id"`
	FullName      string           `db:"full_name" json:"full_name"`
	Relationship  string           `db:"relationship" json:"relationship"`
	Phone         string           `db:"phone" json:"phone"`
	Outcome       ReferenceOutcome `db:"outcome" json:"outcome"`
	Notes         string           `db:"notes" json:"notes,omitempty"`
	VerifiedBy    *string          `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt    *time.Time       `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}
