package handler

import (
	"log/slog"
	"net/http"

	"bintobloom/internal/middleware"
	"bintobloom/internal/model"
	"bintobloom/internal/service"
	"bintobloom/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	billing service.BillingService
	auth    *middleware.Auth
	log     *slog.Logger
}

func NewPaymentHandler(billing service.BillingService, auth *middleware.Auth, log *slog.Logger) *PaymentHandler {
	return &PaymentHandler{billing: billing, auth: auth, log: log}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payment := router.Group("/payment")
	{
		payment.POST("/verify", h.Verify)
		payment.POST("/create-order", h.auth.RequireRole(model.RoleHousehold, model.RoleBusiness), h.CreateOrder)
		payment.POST("/pay-bill", h.auth.RequireRole(model.RoleBusiness), h.PayBill)
		payment.GET("/history", h.auth.Authenticate(), h.History)
	}
}

// CreateOrder handles POST /payment/create-order
// @Summary      Open a gateway order for an arbitrary amount
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Amount"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /payment/create-order [post]
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.billing.CreateOrder(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// PayBill handles POST /payment/pay-bill
// @Summary      Open a gateway order for a generated bill
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.PayBillRequest  true  "Payment or pickup id"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /payment/pay-bill [post]
func (h *PaymentHandler) PayBill(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.PayBillRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.billing.PayBill(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// Verify handles POST /payment/verify, the gateway's client-side callback
// @Summary      Verify a gateway payment and settle the linked pickup
// @Description  Idempotent. Replays of a settled order report already_verified.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        payload  body      service.VerifyPaymentRequest  true  "Gateway callback"
// @Success      200      {object}  response.Response{data=service.VerifyResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /payment/verify [post]
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req service.VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.billing.Verify(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *PaymentHandler) History(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.billing.History(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}
