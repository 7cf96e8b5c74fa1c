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

type verificationService interface {
	Snapshot(ctx context.Context, applicationID string) (models.VerificationSnapshot, error)
	Verify(ctx context.Context, actor models.Actor, applicationID string, field models.VerificationField) (*models.FieldVerificationRecord, error)
	Reject(ctx context.Context, actor models.Actor, applicationID string, field models.VerificationField, reason string) (*models.FieldVerificationRecord, error)
	Unverify(ctx context.Context, actor models.Actor, applicationID string, field models.VerificationField, reason string) (*models.FieldVerificationRecord, error)
}

// VerificationHandler exposes the field verification endpoints.
type VerificationHandler struct {
	verifications verificationService
}

// NewVerificationHandler constructs handler.
func NewVerificationHandler(verifications verificationService) *VerificationHandler {
	return &VerificationHandler{verifications: verifications}
}

// Snapshot godoc
// @Summary Verification state of every reviewable field
// @Tags Verification
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/verification [get]
func (h *VerificationHandler) Snapshot(c *gin.Context) {
	snapshot, err := h.verifications.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Verify godoc
// @Summary Manually verify an applicant field
// @Tags Verification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body models.VerifyFieldRequest true "Field to verify"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/verification/verify [post]
func (h *VerificationHandler) Verify(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.VerifyFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.verifications.Verify(c.Request.Context(), actor, c.Param("id"), req.Field)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Reject godoc
// @Summary Reject an applicant field with a reason
// @Tags Verification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body models.RejectFieldRequest true "Field and reason"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/verification/reject [post]
func (h *VerificationHandler) Reject(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.RejectFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.verifications.Reject(c.Request.Context(), actor, c.Param("id"), req.Field, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Unverify godoc
// @Summary Roll a verified field back to pending
// @Tags Verification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body models.UnverifyFieldRequest true "Field and rollback reason"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/verification/unverify [post]
func (h *VerificationHandler) Unverify(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.UnverifyFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.verifications.Unverify(c.Request.Context(), actor, c.Param("id"), req.Field, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
