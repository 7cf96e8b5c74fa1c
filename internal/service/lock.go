package service

import "github.com/prestamax/loan-review-api/internal/models"

// Lock resolution is centralized here: every view of a field's or
// document's mutability goes through these two functions so the selfie,
// document list and field registry can never disagree about what is locked.
//
// Upstream KYC providers persist their pass signal in either the document
// metadata or the face_match/liveness verification records, depending on
// which pipeline ran. Locking ORs across both sources so an incomplete
// write on one side still protects the record.

// fieldLocked reports whether the record is immutable to staff commands.
// The selfie document is the correlated signal source for the KYC
// pseudo-fields.
func fieldLocked(record models.FieldVerificationRecord, selfie *models.Document) bool {
	if record.Locked() {
		return true
	}
	if record.Field == models.FieldFaceMatch || record.Field == models.FieldLiveness {
		return selfie != nil && selfie.Metadata.SignalsKYC()
	}
	return false
}

// documentLocked reports whether a document's review state is immutable to
// staff commands. Only KYC-sourced approvals lock; for selfies the
// face_match/liveness records are the correlated signal source.
func documentLocked(doc models.Document, snapshot models.VerificationSnapshot) bool {
	if doc.Metadata.SignalsKYC() {
		return true
	}
	if doc.Type != models.DocSelfie {
		return false
	}
	for _, field := range []models.VerificationField{models.FieldFaceMatch, models.FieldLiveness} {
		rec := snapshot.Record(field)
		if rec.Status == models.VerificationVerified && models.IsAutomatedMethod(rec.Method) {
			return true
		}
	}
	return false
}

// selfieOf returns the uploaded selfie document, if any.
func selfieOf(docs []models.Document) *models.Document {
	for i := range docs {
		if docs[i].Type == models.DocSelfie && !docs[i].IsMissingPlaceholder() {
			return &docs[i]
		}
	}
	return nil
}
