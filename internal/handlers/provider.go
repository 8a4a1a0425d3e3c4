package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
)

// ProviderHandler handles provider and slot HTTP requests.
type ProviderHandler struct {
	providerService service.ProviderService
}

// NewProviderHandler creates a new ProviderHandler instance.
func NewProviderHandler(providerService service.ProviderService) *ProviderHandler {
	return &ProviderHandler{providerService: providerService}
}

// CreateProvider godoc
// @Summary Create a provider
// @Tags providers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateProviderRequest true "Provider"
// @Success 201 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Router /providers [post]
func (h *ProviderHandler) CreateProvider(c *gin.Context) {
	var req service.CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	provider, err := h.providerService.CreateProvider(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": provider.ID})
}

// ListProviders godoc
// @Summary List providers with their slots
// @Tags providers
// @Produce json
// @Success 200 {array} models.Provider
// @Router /providers [get]
func (h *ProviderHandler) ListProviders(c *gin.Context) {
	providers, err := h.providerService.ListProviders(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, providers)
}

// ListSlots godoc
// @Summary List a provider's slots in insertion order
// @Tags providers
// @Produce json
// @Param id path string true "Provider ID"
// @Success 200 {array} models.Slot
// @Failure 404 {object} ErrorResponse
// @Router /providers/{id}/slots [get]
func (h *ProviderHandler) ListSlots(c *gin.Context) {
	slots, err := h.providerService.ListSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// AddSlots godoc
// @Summary Append open slots
// @Tags providers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Provider ID"
// @Param request body service.AddSlotsRequest true "Slots"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /providers/{id}/slots [post]
func (h *ProviderHandler) AddSlots(c *gin.Context) {
	var req service.AddSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.providerService.AddSlots(c.Request.Context(), c.Param("id"), req); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "slots added"})
}

// ReplaceSlots godoc
// @Summary Overwrite a provider's slot list
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Provider ID"
// @Param request body service.ReplaceSlotsRequest true "Slots"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /admin/providers/{id}/slots [patch]
func (h *ProviderHandler) ReplaceSlots(c *gin.Context) {
	var req service.ReplaceSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.providerService.ReplaceSlots(c.Request.Context(), c.Param("id"), req); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "slots replaced"})
}
