package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
)

// MaxWebhookBodyBytes bounds the webhook payload read into memory.
const MaxWebhookBodyBytes = 64 << 10

// StripeSignatureHeader carries the webhook signature.
const StripeSignatureHeader = "Stripe-Signature"

// PaymentHandler handles payment HTTP requests.
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler instance.
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateIntent godoc
// @Summary Create a payment intent
// @Tags payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateIntentRequest true "Amount in minor units"
// @Success 200 {object} service.CreateIntentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /payments/intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	var req service.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.paymentService.CreateIntent(c.Request.Context(), caller, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// RecordPayment godoc
// @Summary Record a client payment document
// @Description The document is stored unverified until the webhook confirms its intent
// @Tags payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Router /payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	var payload json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}

	id, err := h.paymentService.RecordPayment(c.Request.Context(), caller, payload)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// Webhook godoc
// @Summary Stripe webhook
// @Tags payments
// @Accept json
// @Success 200 {object} map[string]bool
// @Failure 401 {object} ErrorResponse
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBodyBytes)
	payload, err := c.GetRawData()
	if err != nil {
		RespondError(c, http.StatusBadRequest, KindValidation, "unreadable webhook body")
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), payload, c.GetHeader(StripeSignatureHeader)); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ListPayments godoc
// @Summary Payment history
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Payment
// @Router /admin/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	payments, err := h.paymentService.ListPayments(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// UpdatePaymentStatus godoc
// @Summary Set a payment approval status
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param request body service.UpdatePaymentStatusRequest true "New status"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /admin/payments/{id} [patch]
func (h *PaymentHandler) UpdatePaymentStatus(c *gin.Context) {
	var req service.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.paymentService.UpdateStatus(c.Request.Context(), c.Param("id"), req); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment updated"})
}
