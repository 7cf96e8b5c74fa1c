package models

import "time"

// UserRole represents the staff roles recognized by the RBAC system.
type UserRole string

const (
	RoleAnalyst    UserRole = "ANALYST"
	RoleSupervisor UserRole = "SUPERVISOR"
	RoleAdmin      UserRole = "ADMIN"
)

// User represents a staff member stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Permissions is the capability set of an actor for review commands. It is
// resolved per command and must never be cached across requests: a role
// change takes effect on the next command.
type Permissions struct {
	CanAssignApplications        bool `json:"can_assign_applications"`
	CanChangeApplicationStatus   bool `json:"can_change_application_status"`
	CanApproveRejectApplications bool `json:"can_approve_reject_applications"`
	CanReviewDocuments           bool `json:"can_review_documents"`
	CanVerifyFields              bool `json:"can_verify_fields"`
	CanVerifyReferences          bool `json:"can_verify_references"`
	CanManageUsers               bool `json:"can_manage_users"`
}

// Actor identifies the staff member issuing a review command.
type Actor struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}
