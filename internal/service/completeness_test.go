package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prestamax/loan-review-api/internal/models"
)

func detailWithDocs(required models.DocumentTypeList, docs []models.Document) *models.ApplicationDetail {
	app := reviewApplication(models.StatusInReview)
	app.RequiredDocuments = required
	return &models.ApplicationDetail{
		Application: *app,
		Applicant:   &models.Applicant{ApplicationID: app.ID, FirstName: "Juan"},
		Address:     &models.Address{ApplicationID: app.ID, Street: "Av. Reforma"},
		Employment:  &models.Employment{ApplicationID: app.ID, CompanyName: "Acme SA"},
		Documents:   docs,
	}
}

func TestCompletenessEmptyDocuments(t *testing.T) {
	required := models.DocumentTypeList{models.DocINEFront, models.DocINEBack, models.DocProofOfAddress}
	snapshot := ComputeCompleteness(detailWithDocs(required, nil))

	assert.Equal(t, 3, snapshot.Documents.Required)
	assert.Equal(t, 0, snapshot.Documents.Uploaded)
	assert.Equal(t, 0, snapshot.Documents.Approved)
	assert.Equal(t, models.CategoryIncomplete, snapshot.Documents.State)

	// personal_data, address, employment complete; documents and
	// references not; no signature category.
	assert.Equal(t, 5, snapshot.TotalCategories)
	assert.Equal(t, 3, snapshot.CompletedCount)
	assert.Equal(t, 60, snapshot.Percentage)
}

func TestCompletenessDocumentsApprovalFlow(t *testing.T) {
	required := models.DocumentTypeList{models.DocINEFront, models.DocINEBack, models.DocProofOfAddress}
	docs := []models.Document{
		{ID: "d1", Type: models.DocINEFront, Status: models.DocumentPending},
		{ID: "d2", Type: models.DocINEBack, Status: models.DocumentPending},
		{ID: "d3", Type: models.DocProofOfAddress, Status: models.DocumentPending},
	}
	snapshot := ComputeCompleteness(detailWithDocs(required, docs))
	assert.Equal(t, models.CategoryPartial, snapshot.Documents.State)
	assert.Equal(t, 3, snapshot.Documents.Uploaded)

	for i := range docs {
		docs[i].Status = models.DocumentApproved
	}
	snapshot = ComputeCompleteness(detailWithDocs(required, docs))
	assert.Equal(t, models.CategoryComplete, snapshot.Documents.State)
	assert.Equal(t, 3, snapshot.Documents.Approved)
	assert.Equal(t, 80, snapshot.Percentage)
}

func TestCompletenessCountsDistinctTypes(t *testing.T) {
	required := models.DocumentTypeList{models.DocINEFront, models.DocINEBack}
	docs := []models.Document{
		{ID: "d1", Type: models.DocINEFront, Status: models.DocumentApproved},
		{ID: "d2", Type: models.DocINEFront, Status: models.DocumentApproved},
		{ID: "d3", Type: models.DocINEFront, Status: models.DocumentApproved},
	}
	snapshot := ComputeCompleteness(detailWithDocs(required, docs))
	// Three approvals of the same type still cover only one requirement.
	assert.Equal(t, 1, snapshot.Documents.Uploaded)
	assert.Equal(t, 1, snapshot.Documents.Approved)
	assert.Equal(t, models.CategoryIncomplete, snapshot.Documents.State)
}

func TestCompletenessIgnoresPlaceholdersAndExtras(t *testing.T) {
	required := models.DocumentTypeList{models.DocINEFront}
	docs := []models.Document{
		{ID: models.MissingDocumentIDPrefix + "ine_front", Type: models.DocINEFront, Status: models.DocumentPending},
		{ID: "d1", Type: models.DocOther, Status: models.DocumentApproved},
	}
	snapshot := ComputeCompleteness(detailWithDocs(required, docs))
	assert.Equal(t, 0, snapshot.Documents.Uploaded)
	assert.Equal(t, 0, snapshot.Documents.Approved)
}

func TestCompletenessReferencesNeedTwoVerified(t *testing.T) {
	detail := detailWithDocs(nil, nil)
	detail.References = []models.Reference{
		{ID: "r1", Outcome: models.ReferenceVerified},
		{ID: "r2", Outcome: models.ReferencePending},
		{ID: "r3", Outcome: models.ReferenceNoAnswer},
	}
	snapshot := ComputeCompleteness(detail)
	assert.Equal(t, models.CategoryPartial, snapshot.References.State)
	assert.Equal(t, 1, snapshot.References.Verified)

	detail.References[1].Outcome = models.ReferenceVerified
	snapshot = ComputeCompleteness(detail)
	assert.Equal(t, models.CategoryComplete, snapshot.References.State)
	assert.Equal(t, 2, snapshot.References.Verified)
}

func TestCompletenessSignatureConditional(t *testing.T) {
	noSig := detailWithDocs(models.DocumentTypeList{models.DocINEFront}, nil)
	snapshot := ComputeCompleteness(noSig)
	assert.False(t, snapshot.SignatureRequired)
	assert.Equal(t, 5, snapshot.TotalCategories)

	withSig := detailWithDocs(models.DocumentTypeList{models.DocINEFront, models.DocSignature}, nil)
	snapshot = ComputeCompleteness(withSig)
	assert.True(t, snapshot.SignatureRequired)
	assert.Equal(t, 6, snapshot.TotalCategories)
	assert.False(t, snapshot.Signature)

	withSig.Signature = &models.Signature{ApplicationID: "app1", HasSigned: true}
	snapshot = ComputeCompleteness(withSig)
	assert.True(t, snapshot.Signature)
}

func TestCompletenessMonotonicity(t *testing.T) {
	required := models.DocumentTypeList{models.DocINEFront, models.DocINEBack}
	detail := detailWithDocs(required, []models.Document{
		{ID: "d1", Type: models.DocINEFront, Status: models.DocumentApproved},
		{ID: "d2", Type: models.DocINEBack, Status: models.DocumentPending},
	})
	detail.References = []models.Reference{
		{ID: "r1", Outcome: models.ReferenceVerified},
		{ID: "r2", Outcome: models.ReferencePending},
	}
	before := ComputeCompleteness(detail).Percentage

	// Approving a missing required document never lowers the percentage.
	detail.Documents[1].Status = models.DocumentApproved
	afterDoc := ComputeCompleteness(detail).Percentage
	assert.GreaterOrEqual(t, afterDoc, before)

	// Verifying a second reference never lowers it either.
	detail.References[1].Outcome = models.ReferenceVerified
	afterRef := ComputeCompleteness(detail).Percentage
	assert.GreaterOrEqual(t, afterRef, afterDoc)
	assert.Equal(t, 100, afterRef)
}
