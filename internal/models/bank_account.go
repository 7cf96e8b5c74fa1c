package models

import "time"

// BankAccount is a disbursement account declared by the applicant. Accounts
// carry a binary verified flag with no rejection state.
type BankAccount struct {
	ID            string     `db:"id" json:"id"`
	ApplicationID string     `db:"application_id" json:"application_id"`
	BankName      string     `db:"bank_name" json:"bank_name"`
	CLABE         string     `db:"clabe" json:"clabe"`
	AccountHolder string     `db:"account_holder" json:"account_holder"`
	IsPrimary     bool       `db:"is_primary" json:"is_primary"`
	IsVerified    bool       `db:"is_verified" json:"is_verified"`
	VerifiedBy    *string    `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt    *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
