package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DocumentType identifies the kind of evidence a document carries.
type DocumentType string

const (
	DocINEFront       DocumentType = "INE_FRONT"
	DocINEBack        DocumentType = "INE_BACK"
	DocProofOfAddress DocumentType = "PROOF_OF_ADDRESS"
	DocProofOfIncome  DocumentType = "PROOF_OF_INCOME"
	DocBankStatement  DocumentType = "BANK_STATEMENT"
	DocSelfie         DocumentType = "SELFIE"
	DocSignature      DocumentType = "SIGNATURE"
	DocOther          DocumentType = "OTHER"
)

// AllDocumentTypes lists every recognized document type.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocINEFront, DocINEBack, DocProofOfAddress, DocProofOfIncome,
		DocBankStatement, DocSelfie, DocSignature, DocOther,
	}
}

// DocumentTypeList maps to a Postgres text[] column of document types.
type DocumentTypeList []DocumentType

// Contains reports whether the list includes the given type.
func (l DocumentTypeList) Contains(t DocumentType) bool {
	for _, dt := range l {
		if dt == t {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer using the text[] literal format.
func (l DocumentTypeList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "{}", nil
	}
	parts := make([]string, len(l))
	for i, t := range l {
		parts[i] = string(t)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// Scan implements sql.Scanner for text[] columns.
func (l *DocumentTypeList) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into DocumentTypeList", src)
	}
	raw = strings.Trim(raw, "{}")
	if raw == "" {
		*l = DocumentTypeList{}
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make(DocumentTypeList, 0, len(parts))
	for _, p := range parts {
		out = append(out, DocumentType(strings.Trim(p, `"`)))
	}
	*l = out
	return nil
}

// DocumentStatus is the review state of an uploaded document.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "PENDING"
	DocumentApproved DocumentStatus = "APPROVED"
	DocumentRejected DocumentStatus = "REJECTED"
)

// DocumentRejectionReason is the closed enum of reasons staff may cite when
// rejecting a document.
type DocumentRejectionReason string

const (
	RejectIllegible  DocumentRejectionReason = "ILLEGIBLE"
	RejectExpired    DocumentRejectionReason = "EXPIRED"
	RejectIncomplete DocumentRejectionReason = "INCOMPLETE"
	RejectWrongDoc   DocumentRejectionReason = "WRONG_DOC"
	RejectMismatch   DocumentRejectionReason = "MISMATCH"
	RejectLowQuality DocumentRejectionReason = "LOW_QUALITY"
	RejectOutdated   DocumentRejectionReason = "OUTDATED"
	RejectOther      DocumentRejectionReason = "OTHER"
)

var documentRejectionReasons = map[DocumentRejectionReason]struct{}{
	RejectIllegible: {}, RejectExpired: {}, RejectIncomplete: {},
	RejectWrongDoc: {}, RejectMismatch: {}, RejectLowQuality: {},
	RejectOutdated: {}, RejectOther: {},
}

// IsValid reports whether the reason belongs to the closed enum.
func (r DocumentRejectionReason) IsValid() bool {
	_, ok := documentRejectionReasons[r]
	return ok
}

// AllDocumentRejectionReasons lists the closed rejection-reason enum.
func AllDocumentRejectionReasons() []DocumentRejectionReason {
	return []DocumentRejectionReason{
		RejectIllegible, RejectExpired, RejectIncomplete, RejectWrongDoc,
		RejectMismatch, RejectLowQuality, RejectOutdated, RejectOther,
	}
}

// MissingDocumentIDPrefix prefixes the synthetic IDs of placeholder entries
// materialized for required document types with no upload. Placeholders are
// display-only: never persisted, never transitioned.
const MissingDocumentIDPrefix = "missing-"

// DocumentMetadata carries optional signals attached by upstream systems,
// notably the KYC pipeline's face-match result on selfies.
type DocumentMetadata struct {
	FaceMatchPassed  *bool    `json:"face_match_passed,omitempty"`
	FaceMatchScore   *float64 `json:"face_match_score,omitempty"`
	ValidationMethod string   `json:"validation_method,omitempty"`
	KYCValidated     bool     `json:"kyc_validated,omitempty"`
	Source           string   `json:"source,omitempty"`

	// Extra holds keys this service does not model. Preserved verbatim.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// SignalsKYC reports whether the metadata itself marks the document as
// verified by the automated KYC pipeline.
func (m *DocumentMetadata) SignalsKYC() bool {
	if m == nil {
		return false
	}
	if m.KYCValidated {
		return true
	}
	if m.FaceMatchPassed != nil && *m.FaceMatchPassed {
		return true
	}
	return IsAutomatedMethod(VerificationMethod(m.ValidationMethod)) ||
		IsAutomatedMethod(VerificationMethod(m.Source))
}

// Document is one piece of uploaded evidence under review.
type Document struct {
	ID              string                  `db:"id" json:"id"`
	ApplicationID   string                  `db:"application_id" json:"application_id"`
	Type            DocumentType            `db:"type" json:"type"`
	FileName        string                  `db:"file_name" json:"file_name"`
	ContentType     string                  `db:"content_type" json:"content_type"`
	Status          DocumentStatus          `db:"status" json:"status"`
	RejectionReason DocumentRejectionReason `db:"rejection_reason" json:"rejection_reason,omitempty"`
	RejectionNote   string                  `db:"rejection_note" json:"rejection_note,omitempty"`
	Metadata        *DocumentMetadata       `db:"-" json:"metadata,omitempty"`
	MetadataRaw     []byte                  `db:"metadata" json:"-"`
	ReviewedBy      *string                 `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time              `db:"reviewed_at" json:"reviewed_at,omitempty"`
	KYCLocked       bool                    `db:"-" json:"kyc_locked"`
	UploadedAt      time.Time               `db:"uploaded_at" json:"uploaded_at"`
	UpdatedAt       time.Time               `db:"updated_at" json:"updated_at"`
}

// IsMissingPlaceholder reports whether the document is a synthetic entry for
// a required type that was never uploaded.
func (d Document) IsMissingPlaceholder() bool {
	return strings.HasPrefix(d.ID, MissingDocumentIDPrefix)
}
