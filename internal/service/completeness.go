package service

import (
	"math"

	"github.com/prestamax/loan-review-api/internal/models"
)

// minVerifiedReferences is the fixed number of references that must be
// verified for the references category to count as complete, regardless of
// how many references the applicant supplied.
const minVerifiedReferences = 2

// ComputeCompleteness derives the readiness snapshot from current aggregate
// state. Pure function, recomputed on every read, never stored. It measures
// presence and approval, not field-level verification.
func ComputeCompleteness(detail *models.ApplicationDetail) models.CompletenessSnapshot {
	snapshot := models.CompletenessSnapshot{
		PersonalData: detail.Applicant != nil,
		Address:      detail.Address != nil,
		Employment:   detail.Employment != nil,
	}

	snapshot.Documents = documentCompleteness(detail.Documents, detail.RequiredDocuments)
	snapshot.References = referenceCompleteness(detail.References)

	snapshot.SignatureRequired = detail.RequiredDocuments.Contains(models.DocSignature)
	if snapshot.SignatureRequired {
		snapshot.Signature = detail.Signature != nil && detail.Signature.HasSigned
	}

	snapshot.TotalCategories = 5
	if snapshot.SignatureRequired {
		snapshot.TotalCategories = 6
	}
	for _, done := range []bool{
		snapshot.PersonalData,
		snapshot.Address,
		snapshot.Employment,
		snapshot.Documents.State == models.CategoryComplete,
		snapshot.References.State == models.CategoryComplete,
	} {
		if done {
			snapshot.CompletedCount++
		}
	}
	if snapshot.SignatureRequired && snapshot.Signature {
		snapshot.CompletedCount++
	}
	snapshot.Percentage = int(math.Round(100 * float64(snapshot.CompletedCount) / float64(snapshot.TotalCategories)))
	return snapshot
}

// documentCompleteness counts by distinct required type: five uploads of the
// same type still cover only one requirement. Placeholders do not count as
// uploads.
func documentCompleteness(docs []models.Document, required models.DocumentTypeList) models.DocumentCompleteness {
	requiredSet := make(map[models.DocumentType]struct{}, len(required))
	for _, t := range required {
		requiredSet[t] = struct{}{}
	}
	uploadedTypes := make(map[models.DocumentType]struct{})
	approvedTypes := make(map[models.DocumentType]struct{})
	for _, doc := range docs {
		if doc.IsMissingPlaceholder() {
			continue
		}
		if _, ok := requiredSet[doc.Type]; !ok {
			continue
		}
		uploadedTypes[doc.Type] = struct{}{}
		if doc.Status == models.DocumentApproved {
			approvedTypes[doc.Type] = struct{}{}
		}
	}

	result := models.DocumentCompleteness{
		Required: len(requiredSet),
		Uploaded: len(uploadedTypes),
		Approved: len(approvedTypes),
		State:    models.CategoryIncomplete,
	}
	switch {
	case result.Required == 0 || result.Approved >= result.Required:
		result.State = models.CategoryComplete
	case result.Uploaded >= result.Required:
		result.State = models.CategoryPartial
	}
	return result
}

func referenceCompleteness(refs []models.Reference) models.ReferenceCompleteness {
	result := models.ReferenceCompleteness{
		Total: len(refs),
		State: models.CategoryIncomplete,
	}
	for _, ref := range refs {
		if ref.Outcome == models.ReferenceVerified {
			result.Verified++
		}
	}
	switch {
	case result.Verified >= minVerifiedReferences:
		result.State = models.CategoryComplete
	case result.Total >= minVerifiedReferences:
		result.State = models.CategoryPartial
	}
	return result
}
