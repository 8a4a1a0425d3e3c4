package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
)

// BookingHandler handles booking HTTP requests.
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new BookingHandler instance.
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// BookSlot godoc
// @Summary Book an open slot
// @Tags bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.BookSlotRequest true "Slot"
// @Success 201 {object} models.Booking
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) BookSlot(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	var req service.BookSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookingService.BookSlot(c.Request.Context(), caller, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// ListForProvider godoc
// @Summary List a provider's bookings
// @Tags bookings
// @Security BearerAuth
// @Produce json
// @Param providerId path string true "Provider ID"
// @Success 200 {array} models.Booking
// @Router /bookings/{providerId} [get]
func (h *BookingHandler) ListForProvider(c *gin.Context) {
	bookings, err := h.bookingService.ListForProvider(c.Request.Context(), c.Param("providerId"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// ListAll godoc
// @Summary List every booking
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Booking
// @Router /admin/bookings [get]
func (h *BookingHandler) ListAll(c *gin.Context) {
	bookings, err := h.bookingService.ListAll(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}
