package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/420btc/svcmoto-sub000/internal/middleware"
	"github.com/420btc/svcmoto-sub000/internal/payment"
	"github.com/420btc/svcmoto-sub000/internal/service"
	"github.com/420btc/svcmoto-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	webhookSecret  string
}

func NewPaymentHandler(paymentService service.PaymentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		webhookSecret:  webhookSecret,
	}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/payments")
	{
		payments.POST("/checkout", middleware.RequireAuth(), h.StartCheckout)
		// The provider signs the webhook; no session auth here.
		payments.POST("/webhook", h.Webhook)
	}
}

// StartCheckout asks the provider for a hosted checkout redirect
// @Summary      Start checkout
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.StartCheckoutRequest  true  "Checkout payload"
// @Success      200      {object}  response.Response{data=service.CheckoutResponse}
// @Failure      500      {object}  response.Response
// @Router       /api/payments/checkout [post]
func (h *PaymentHandler) StartCheckout(c *gin.Context) {
	var req service.StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	req.UserID = middleware.CallerID(c)

	checkout, err := h.paymentService.StartCheckout(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, checkout))
}

// Webhook receives the provider's signed payment-outcome notification
// @Summary      Payment webhook
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Signature  header    string  true  "HMAC-SHA256 of the raw body"
// @Success      200          {object}  response.Response
// @Failure      401          {object}  response.Response
// @Router       /api/payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read body"))
		return
	}

	signature := c.GetHeader("X-Signature")
	if !payment.VerifySignature(h.webhookSecret, body, signature) {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid webhook signature"))
		return
	}

	var event service.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid webhook payload"))
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), event); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"received": true}))
}
