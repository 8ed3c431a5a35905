package handler

import (
	"github.com/gin-gonic/gin"

	"expenso/internal/service"
)

// CatalogHandler exposes the read-only matching catalogs.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// Categories handles GET /api/v1/catalogs/categories
func (h *CatalogHandler) Categories(c *gin.Context) {
	categories, err := h.catalogService.Categories(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, categories)
}

// TaxCodes handles GET /api/v1/catalogs/tax-codes?country=DE
func (h *CatalogHandler) TaxCodes(c *gin.Context) {
	country := c.DefaultQuery("country", "DE")

	codes, err := h.catalogService.TaxCodes(c.Request.Context(), country)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, codes)
}

// Currencies handles GET /api/v1/catalogs/currencies
func (h *CatalogHandler) Currencies(c *gin.Context) {
	currencies, err := h.catalogService.Currencies(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, currencies)
}
