package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
)

// ContactHandler accepts contact-form submissions.
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler creates a new ContactHandler instance.
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Submit godoc
// @Summary Submit the contact form
// @Tags contact
// @Accept json
// @Produce json
// @Param request body service.ContactRequest true "Message"
// @Success 202 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req service.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.contactService.Submit(c.Request.Context(), req); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "message received"})
}
