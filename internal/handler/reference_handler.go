package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prestamax/loan-review-api/internal/middleware"
	"github.com/prestamax/loan-review-api/internal/models"
	appErrors "github.com/prestamax/loan-review-api/pkg/errors"
	"github.com/prestamax/loan-review-api/pkg/response"
)

type referenceService interface {
	ListReferences(ctx context.Context, applicationID string) ([]models.Reference, error)
	ListBankAccounts(ctx context.Context, applicationID string) ([]models.BankAccount, error)
	RecordReferenceOutcome(ctx context.Context, actor models.Actor, applicationID, referenceID string, outcome models.ReferenceOutcome, notes string) (*models.Reference, error)
	SetBankAccountVerified(ctx context.Context, actor models.Actor, applicationID, accountID string, verified bool) (*models.BankAccount, error)
}

// ReferenceHandler exposes personal reference and bank account endpoints.
type ReferenceHandler struct {
	references referenceService
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(references referenceService) *ReferenceHandler {
	return &ReferenceHandler{references: references}
}

// ListReferences godoc
// @Summary Personal references of an application
// @Tags References
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/references [get]
func (h *ReferenceHandler) ListReferences(c *gin.Context) {
	refs, err := h.references.ListReferences(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refs, nil)
}

// RecordOutcome godoc
// @Summary Record the outcome of a reference call
// @Tags References
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param referenceId path string true "Reference ID"
// @Param payload body models.ReferenceOutcomeRequest true "Call outcome"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/references/{referenceId}/outcome [post]
func (h *ReferenceHandler) RecordOutcome(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.ReferenceOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ref, err := h.references.RecordReferenceOutcome(c.Request.Context(), actor, c.Param("id"), c.Param("referenceId"), req.Outcome, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ref, nil)
}

// ListBankAccounts godoc
// @Summary Bank accounts of an application
// @Tags References
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/bank-accounts [get]
func (h *ReferenceHandler) ListBankAccounts(c *gin.Context) {
	accounts, err := h.references.ListBankAccounts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, accounts, nil)
}

// VerifyBankAccount godoc
// @Summary Mark a bank account as verified
// @Tags References
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param accountId path string true "Bank account ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/bank-accounts/{accountId}/verify [post]
func (h *ReferenceHandler) VerifyBankAccount(c *gin.Context) {
	h.setBankAccountVerified(c, true)
}

// UnverifyBankAccount godoc
// @Summary Clear the verified mark on a bank account
// @Tags References
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param accountId path string true "Bank account ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/bank-accounts/{accountId}/unverify [post]
func (h *ReferenceHandler) UnverifyBankAccount(c *gin.Context) {
	h.setBankAccountVerified(c, false)
}

func (h *ReferenceHandler) setBankAccountVerified(c *gin.Context, verified bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	account, err := h.references.SetBankAccountVerified(c.Request.Context(), actor, c.Param("id"), c.Param("accountId"), verified)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}
