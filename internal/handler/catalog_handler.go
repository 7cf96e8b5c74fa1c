package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prestamax/loan-review-api/internal/service"
	"github.com/prestamax/loan-review-api/pkg/response"
)

type catalogService interface {
	Catalog() service.Catalog
}

// CatalogHandler serves the enumeration catalogs used by review UIs.
type CatalogHandler struct {
	catalogs catalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogs catalogService) *CatalogHandler {
	return &CatalogHandler{catalogs: catalogs}
}

// Catalog godoc
// @Summary Enumeration values with display labels
// @Tags Catalogs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /catalogs [get]
func (h *CatalogHandler) Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalogs.Catalog(), nil)
}
