package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prestamax/loan-review-api/internal/middleware"
	"github.com/prestamax/loan-review-api/internal/models"
	appErrors "github.com/prestamax/loan-review-api/pkg/errors"
	"github.com/prestamax/loan-review-api/pkg/response"
)

type applicationService interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, models.Pagination, error)
	Detail(ctx context.Context, applicationID string) (*models.ApplicationDetail, error)
	ChangeStatus(ctx context.Context, actor models.Actor, applicationID string, target models.ApplicationStatus, note string) (*models.Application, error)
	Assign(ctx context.Context, actor models.Actor, applicationID, staffUserID string) (*models.Application, error)
	CreateCounterOffer(ctx context.Context, actor models.Actor, applicationID string, req models.CounterOfferRequest) (*models.CounterOffer, error)
	AddNote(ctx context.Context, actor models.Actor, applicationID, body string) (*models.Note, error)
	ListNotes(ctx context.Context, applicationID string) ([]models.Note, error)
	ListTimeline(ctx context.Context, applicationID string, page, pageSize int) ([]models.TimelineEvent, models.Pagination, error)
}

// ApplicationHandler exposes the application review endpoints.
type ApplicationHandler struct {
	applications applicationService
}

// NewApplicationHandler constructs handler.
func NewApplicationHandler(applications applicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// List godoc
// @Summary List applications under review
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param assigned_to query string false "Filter by assigned staff"
// @Param search query string false "Search by folio"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	filter := models.ApplicationFilter{
		AssignedTo: c.Query("assigned_to"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ApplicationStatus(raw)
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	apps, pagination, err := h.applications.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, &pagination)
}

// Detail godoc
// @Summary Full application detail for the review screen
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Detail(c *gin.Context) {
	detail, err := h.applications.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ChangeStatus godoc
// @Summary Move an application to a new status
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body models.ChangeStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/status [post]
func (h *ApplicationHandler) ChangeStatus(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	app, err := h.applications.ChangeStatus(c.Request.Context(), actor, c.Param("id"), req.Status, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Assign godoc
// @Summary Assign an application to a staff member
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body models.AssignRequest true "Target staff member"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/assign [post]
func (h *ApplicationHandler) Assign(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	app, err := h.applications.Assign(c.Request.Context(), actor, c.Param("id"), req.StaffUserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// CreateCounterOffer godoc
// @Summary Issue a counter-offer with alternate loan terms
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body models.CounterOfferRequest true "Proposed terms"
// @Success 201 {object} response.Envelope
// @Router /applications/{id}/counter-offer [post]
func (h *ApplicationHandler) CreateCounterOffer(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CounterOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offer, err := h.applications.CreateCounterOffer(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offer)
}

// AddNote godoc
// @Summary Attach a note to an application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body models.AddNoteRequest true "Note body"
// @Success 201 {object} response.Envelope
// @Router /applications/{id}/notes [post]
func (h *ApplicationHandler) AddNote(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := h.applications.AddNote(c.Request.Context(), actor, c.Param("id"), req.Body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// ListNotes godoc
// @Summary Staff notes of an application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/notes [get]
func (h *ApplicationHandler) ListNotes(c *gin.Context) {
	notes, err := h.applications.ListNotes(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, nil)
}

// Timeline godoc
// @Summary Audit timeline of an application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/timeline [get]
func (h *ApplicationHandler) Timeline(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	events, pagination, err := h.applications.ListTimeline(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, &pagination)
}
