package models

import (
	"strings"
	"time"
)

// VerificationField names a data point subject to per-field verification.
type VerificationField string

const (
	FieldFirstName  VerificationField = "first_name"
	FieldLastName1  VerificationField = "last_name_1"
	FieldLastName2  VerificationField = "last_name_2"
	FieldCURP       VerificationField = "curp"
	FieldRFC        VerificationField = "rfc"
	FieldINEClave   VerificationField = "ine_clave"
	FieldBirthDate  VerificationField = "birth_date"
	FieldPhone      VerificationField = "phone"
	FieldEmail      VerificationField = "email"
	FieldAddress    VerificationField = "address"
	FieldEmployment VerificationField = "employment"

	// Pseudo-fields populated by the automated KYC pipeline, never by staff.
	FieldFaceMatch VerificationField = "face_match"
	FieldLiveness  VerificationField = "liveness"
)

var verificationFields = map[VerificationField]struct{}{
	FieldFirstName: {}, FieldLastName1: {}, FieldLastName2: {},
	FieldCURP: {}, FieldRFC: {}, FieldINEClave: {}, FieldBirthDate: {},
	FieldPhone: {}, FieldEmail: {}, FieldAddress: {}, FieldEmployment: {},
	FieldFaceMatch: {}, FieldLiveness: {},
}

// IsValid reports whether the field name is part of the fixed registry.
func (f VerificationField) IsValid() bool {
	_, ok := verificationFields[f]
	return ok
}

// AllVerificationFields lists the fixed field registry in display order.
func AllVerificationFields() []VerificationField {
	return []VerificationField{
		FieldFirstName, FieldLastName1, FieldLastName2, FieldCURP, FieldRFC,
		FieldINEClave, FieldBirthDate, FieldPhone, FieldEmail, FieldAddress,
		FieldEmployment, FieldFaceMatch, FieldLiveness,
	}
}

// VerificationStatus is the review state of a single field.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// VerificationMethod tags how a field was verified. Automated methods lock
// the record against manual mutation.
type VerificationMethod string

const (
	MethodManual       VerificationMethod = "MANUAL"
	MethodKYCFaceMatch VerificationMethod = "KYC_FACE_MATCH"
	MethodKYCLiveness  VerificationMethod = "KYC_LIVENESS"
	MethodKYCDocument  VerificationMethod = "KYC_DOCUMENT"
	MethodOTP          VerificationMethod = "OTP"
	MethodNubarium     VerificationMethod = "NUBARIUM"
)

// automatedMethods is the closed set of methods whose verifications are
// immutable to staff action. Computed once here; every lock decision in the
// codebase goes through IsAutomatedMethod.
var automatedMethods = map[VerificationMethod]bool{
	MethodManual:       false,
	MethodKYCFaceMatch: true,
	MethodKYCLiveness:  true,
	MethodKYCDocument:  true,
	MethodOTP:          true,
	MethodNubarium:     true,
}

// automatedMethodMarkers is the fallback for method strings persisted by
// upstream providers that are not in the closed enum.
var automatedMethodMarkers = []string{"KYC", "NUBARIUM", "LIVENESS", "OTP"}

// IsAutomatedMethod is the single lock-resolution predicate for verification
// methods. Known methods use the precomputed table; unknown methods fall back
// to a case-insensitive marker match so a new upstream provider tag still
// locks the record rather than silently allowing overrides.
func IsAutomatedMethod(method VerificationMethod) bool {
	if method == "" {
		return false
	}
	if automated, ok := automatedMethods[method]; ok {
		return automated
	}
	upper := strings.ToUpper(string(method))
	for _, marker := range automatedMethodMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// FieldVerificationRecord is the verification state of one field of one
// application. Absence of a record is equivalent to PENDING with no method.
type FieldVerificationRecord struct {
	ID              string             `db:"id" json:"id"`
	ApplicationID   string             `db:"application_id" json:"application_id"`
	Field           VerificationField  `db:"field" json:"field"`
	Status          VerificationStatus `db:"status" json:"status"`
	Method          VerificationMethod `db:"method" json:"method,omitempty"`
	VerifiedAt      *time.Time         `db:"verified_at" json:"verified_at,omitempty"`
	VerifiedBy      *string            `db:"verified_by" json:"verified_by,omitempty"`
	Notes           string             `db:"notes" json:"notes,omitempty"`
	RejectionReason string             `db:"rejection_reason" json:"rejection_reason,omitempty"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}

// Locked reports whether the record's last verification came from an
// automated source and is therefore immutable to staff commands.
func (r FieldVerificationRecord) Locked() bool {
	return IsAutomatedMethod(r.Method)
}

// VerificationSnapshot is the registry view keyed by field name.
type VerificationSnapshot map[VerificationField]FieldVerificationRecord

// Record returns the record for a field, falling back to an implicit
// PENDING record when none has been persisted.
func (s VerificationSnapshot) Record(field VerificationField) FieldVerificationRecord {
	if rec, ok := s[field]; ok {
		return rec
	}
	return FieldVerificationRecord{Field: field, Status: VerificationPending}
}
