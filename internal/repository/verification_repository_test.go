package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/prestamax/loan-review-api/internal/models"
)

func verificationRows() *sqlmock.Rows {
	now := time.Now()
	verifier := "u-analyst"
	return sqlmock.NewRows([]string{"id", "application_id", "field", "status", "method", "verified_at", "verified_by", "notes", "rejection_reason", "updated_at"}).
		AddRow("ver-1", "app-1", "curp", "VERIFIED", "KYC_DOCUMENT", now, nil, "", "", now).
		AddRow("ver-2", "app-1", "phone", "REJECTED", "MANUAL", now, verifier, "", "number out of service", now)
}

func TestVerificationRepositorySnapshot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, application_id, field, status, method")).
		WithArgs("app-1").
		WillReturnRows(verificationRows())

	snapshot, err := repo.Snapshot(context.Background(), "app-1")
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	require.Equal(t, models.VerificationVerified, snapshot[models.FieldCURP].Status)
	require.Equal(t, models.MethodKYCDocument, snapshot[models.FieldCURP].Method)
	require.Equal(t, "number out of service", snapshot[models.FieldPhone].RejectionReason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, application_id, field, status, method")).
		WithArgs("app-1", models.FieldRFC).
		WillReturnRows(sqlmock.NewRows([]string{"id", "application_id", "field", "status", "method", "verified_at", "verified_by", "notes", "rejection_reason", "updated_at"}))

	record, err := repo.Find(context.Background(), "app-1", models.FieldRFC)
	require.NoError(t, err)
	require.Nil(t, record)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryUpsertAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO field_verifications")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.FieldVerificationRecord{
		ApplicationID: "app-1",
		Field:         models.FieldCURP,
		Status:        models.VerificationVerified,
		Method:        models.MethodManual,
	}
	require.NoError(t, repo.Upsert(context.Background(), record))
	require.NotEmpty(t, record.ID)
	require.False(t, record.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
