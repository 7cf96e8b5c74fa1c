package models

import "time"

// ApplicationStatus represents the review lifecycle state of a loan application.
type ApplicationStatus string

const (
	StatusDraft              ApplicationStatus = "DRAFT"
	StatusSubmitted          ApplicationStatus = "SUBMITTED"
	StatusInReview           ApplicationStatus = "IN_REVIEW"
	StatusDocsPending        ApplicationStatus = "DOCS_PENDING"
	StatusCorrectionsPending ApplicationStatus = "CORRECTIONS_PENDING"
	StatusCounterOffered     ApplicationStatus = "COUNTER_OFFERED"
	StatusApproved           ApplicationStatus = "APPROVED"
	StatusRejected           ApplicationStatus = "REJECTED"
	StatusCancelled          ApplicationStatus = "CANCELLED"
	StatusDisbursed          ApplicationStatus = "DISBURSED"
)

var applicationStatuses = map[ApplicationStatus]struct{}{
	StatusDraft:              {},
	StatusSubmitted:          {},
	StatusInReview:           {},
	StatusDocsPending:        {},
	StatusCorrectionsPending: {},
	StatusCounterOffered:     {},
	StatusApproved:           {},
	StatusRejected:           {},
	StatusCancelled:          {},
	StatusDisbursed:          {},
}

// IsValid reports whether the status is a recognized enum value.
func (s ApplicationStatus) IsValid() bool {
	_, ok := applicationStatuses[s]
	return ok
}

// IsTerminal reports whether the status admits no further transitions.
func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusDisbursed:
		return true
	}
	return false
}

// AllApplicationStatuses lists every recognized status.
func AllApplicationStatuses() []ApplicationStatus {
	return []ApplicationStatus{
		StatusDraft, StatusSubmitted, StatusInReview, StatusDocsPending,
		StatusCorrectionsPending, StatusCounterOffered, StatusApproved,
		StatusRejected, StatusCancelled, StatusDisbursed,
	}
}

// Application is the aggregate root for a loan application under review.
type Application struct {
	ID                 string            `db:"id" json:"id"`
	TenantID           string            `db:"tenant_id" json:"tenant_id"`
	Folio              string            `db:"folio" json:"folio"`
	Status             ApplicationStatus `db:"status" json:"status"`
	AssignedTo         *string           `db:"assigned_to" json:"assigned_to,omitempty"`
	RequiredDocuments  DocumentTypeList  `db:"required_documents" json:"required_documents"`
	SubmittedAt        *time.Time        `db:"submitted_at" json:"submitted_at,omitempty"`
	StatusChangedAt    time.Time         `db:"status_changed_at" json:"status_changed_at"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`
}

// Applicant is the submitted personal-data snapshot attached to an application.
type Applicant struct {
	ApplicationID string     `db:"application_id" json:"application_id"`
	FirstName     string     `db:"first_name" json:"first_name"`
	LastName1     string     `db:"last_name_1" json:"last_name_1"`
	LastName2     string     `db:"last_name_2" json:"last_name_2"`
	CURP          string     `db:"curp" json:"curp"`
	RFC           string     `db:"rfc" json:"rfc"`
	INEClave      string     `db:"ine_clave" json:"ine_clave"`
	BirthDate     *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Phone         string     `db:"phone" json:"phone"`
	Email         string     `db:"email" json:"email"`
}

// Address is the applicant's declared residence.
type Address struct {
	ApplicationID string `db:"application_id" json:"application_id"`
	Street        string `db:"street" json:"street"`
	ExteriorNo    string `db:"exterior_no" json:"exterior_no"`
	InteriorNo    string `db:"interior_no" json:"interior_no"`
	Neighborhood  string `db:"neighborhood" json:"neighborhood"`
	Municipality  string `db:"municipality" json:"municipality"`
	State         string `db:"state" json:"state"`
	PostalCode    string `db:"postal_code" json:"postal_code"`
	HousingType   string `db:"housing_type" json:"housing_type"`
	YearsAtHome   int    `db:"years_at_home" json:"years_at_home"`
}

// Employment is the applicant's declared income source.
type Employment struct {
	ApplicationID  string  `db:"application_id" json:"application_id"`
	EmploymentType string  `db:"employment_type" json:"employment_type"`
	CompanyName    string  `db:"company_name" json:"company_name"`
	Position       string  `db:"position" json:"position"`
	MonthlyIncome  float64 `db:"monthly_income" json:"monthly_income"`
	YearsEmployed  float64 `db:"years_employed" json:"years_employed"`
	WorkPhone      string  `db:"work_phone" json:"work_phone"`
}

// Signature records whether the applicant completed the digital signature step.
type Signature struct {
	ApplicationID string     `db:"application_id" json:"application_id"`
	HasSigned     bool       `db:"has_signed" json:"has_signed"`
	SignedAt      *time.Time `db:"signed_at" json:"signed_at,omitempty"`
}

// ApplicationFilter encapsulates search parameters for listing applications.
type ApplicationFilter struct {
	Status     *ApplicationStatus
	AssignedTo string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// ApplicationDetail is the full aggregate view loaded for the review screen.
// Every push event from the realtime bus invalidates this projection as a
// whole; consumers reload it rather than patching individual pieces.
type ApplicationDetail struct {
	Application
	Applicant    *Applicant                                      `json:"applicant,omitempty"`
	Address      *Address                                        `json:"address,omitempty"`
	Employment   *Employment                                     `json:"employment,omitempty"`
	Signature    *Signature                                      `json:"signature,omitempty"`
	Loan         *Loan                                           `json:"loan,omitempty"`
	Documents    []Document                                      `json:"documents"`
	References   []Reference                                     `json:"references"`
	BankAccounts []BankAccount                                   `json:"bank_accounts"`
	Notes        []Note                                          `json:"notes"`
	Verification map[VerificationField]FieldVerificationRecord   `json:"verification"`
	Completeness *CompletenessSnapshot                           `json:"completeness,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
