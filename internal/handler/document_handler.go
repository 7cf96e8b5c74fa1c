package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prestamax/loan-review-api/internal/middleware"
	"github.com/prestamax/loan-review-api/internal/models"
	appErrors "github.com/prestamax/loan-review-api/pkg/errors"
	"github.com/prestamax/loan-review-api/pkg/response"
)

type documentService interface {
	List(ctx context.Context, applicationID string) ([]models.Document, error)
	Approve(ctx context.Context, actor models.Actor, applicationID, documentID string) (*models.Document, error)
	Reject(ctx context.Context, actor models.Actor, applicationID, documentID string, reason models.DocumentRejectionReason, comment string) (*models.Document, error)
	Unapprove(ctx context.Context, actor models.Actor, applicationID, documentID string) (*models.Document, error)
	Unreject(ctx context.Context, actor models.Actor, applicationID, documentID string) (*models.Document, error)
	DownloadURL(ctx context.Context, applicationID, documentID string) (string, time.Time, error)
}

// DocumentHandler exposes the document review endpoints.
type DocumentHandler struct {
	documents documentService
}

// NewDocumentHandler constructs handler.
func NewDocumentHandler(documents documentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// List godoc
// @Summary Documents of an application, including missing placeholders
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Approve godoc
// @Summary Approve a pending document
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param documentId path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/documents/{documentId}/approve [post]
func (h *DocumentHandler) Approve(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doc, err := h.documents.Approve(c.Request.Context(), actor, c.Param("id"), c.Param("documentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Reject godoc
// @Summary Reject a pending document with a coded reason
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param documentId path string true "Document ID"
// @Param payload body models.RejectDocumentRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/documents/{documentId}/reject [post]
func (h *DocumentHandler) Reject(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.RejectDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	doc, err := h.documents.Reject(c.Request.Context(), actor, c.Param("id"), c.Param("documentId"), req.Reason, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Unapprove godoc
// @Summary Return an approved document to pending
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param documentId path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/documents/{documentId}/unapprove [post]
func (h *DocumentHandler) Unapprove(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doc, err := h.documents.Unapprove(c.Request.Context(), actor, c.Param("id"), c.Param("documentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Unreject godoc
// @Summary Return a rejected document to pending
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param documentId path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/documents/{documentId}/unreject [post]
func (h *DocumentHandler) Unreject(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doc, err := h.documents.Unreject(c.Request.Context(), actor, c.Param("id"), c.Param("documentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// DownloadURL godoc
// @Summary Short-lived signed URL for downloading a document file
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param documentId path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/documents/{documentId}/download-url [get]
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	url, expiresAt, err := h.documents.DownloadURL(c.Request.Context(), c.Param("id"), c.Param("documentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"url": url, "expires_at": expiresAt}, nil)
}
