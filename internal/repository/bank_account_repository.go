package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/prestamax/loan-review-api/internal/models"
)

// BankAccountRepository manages persistence for disbursement accounts.
type BankAccountRepository struct {
	db *sqlx.DB
}

// NewBankAccountRepository constructs a new repository.
func NewBankAccountRepository(db *sqlx.DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

const bankAccountColumns = `id, application_id, bank_name, clabe, account_holder, is_primary, is_verified, verified_by, verified_at, created_at, updated_at`

// ListByApplication returns all bank accounts for an application.
func (r *BankAccountRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.BankAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM bank_accounts WHERE application_id = $1 ORDER BY is_primary DESC, created_at ASC", bankAccountColumns)
	var accounts []models.BankAccount
	if err := r.db.SelectContext(ctx, &accounts, query, applicationID); err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	return accounts, nil
}

// FindByID loads a single bank account.
func (r *BankAccountRepository) FindByID(ctx context.Context, id string) (*models.BankAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM bank_accounts WHERE id = $1", bankAccountColumns)
	var account models.BankAccount
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// SetVerified persists the verified toggle.
func (r *BankAccountRepository) SetVerified(ctx context.Context, account *models.BankAccount) error {
	account.UpdatedAt = time.Now().UTC()
	query := `UPDATE bank_accounts SET is_verified = :is_verified, verified_by = :verified_by, verified_at = :verified_at, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("update bank account: %w", err)
	}
	return nil
}
