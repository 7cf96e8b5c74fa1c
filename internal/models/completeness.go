package models

// CategoryState is the completion state of one readiness category.
type CategoryState string

const (
	CategoryIncomplete CategoryState = "INCOMPLETE"
	CategoryPartial    CategoryState = "PARTIAL"
	CategoryComplete   CategoryState = "COMPLETE"
)

// DocumentCompleteness details the documents category of the readiness score.
type DocumentCompleteness struct {
	State    CategoryState `json:"state"`
	Required int           `json:"required"`
	Uploaded int           `json:"uploaded"`
	Approved int           `json:"approved"`
}

// ReferenceCompleteness details the references category.
type ReferenceCompleteness struct {
	State    CategoryState `json:"state"`
	Total    int           `json:"total"`
	Verified int           `json:"verified"`
}

// CompletenessSnapshot is the derived readiness view of an application. It
// is recomputed on every read and never stored. Completeness measures
// presence and approval, not field-level verification.
type CompletenessSnapshot struct {
	PersonalData      bool                  `json:"personal_data"`
	Address           bool                  `json:"address"`
	Employment        bool                  `json:"employment"`
	Documents         DocumentCompleteness  `json:"documents"`
	References        ReferenceCompleteness `json:"references"`
	SignatureRequired bool                  `json:"signature_required"`
	Signature         bool                  `json:"signature"`
	CompletedCount    int                   `json:"completed_count"`
	TotalCategories   int                   `json:"total_categories"`
	Percentage        int                   `json:"percentage"`
}
