package handler

import (
	"log/slog"

	"bintobloom/internal/middleware"
	"bintobloom/internal/model"
	"bintobloom/internal/service"
	"bintobloom/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type BusinessHandler struct {
	businesses service.BusinessService
	pickups    service.PickupService
	billing    service.BillingService
	auth       *middleware.Auth
	log        *slog.Logger
}

func NewBusinessHandler(businesses service.BusinessService, pickups service.PickupService, billing service.BillingService, auth *middleware.Auth, log *slog.Logger) *BusinessHandler {
	return &BusinessHandler{businesses: businesses, pickups: pickups, billing: billing, auth: auth, log: log}
}

func (h *BusinessHandler) RegisterRoutes(router *gin.RouterGroup) {
	business := router.Group("/business", h.auth.RequireRole(model.RoleBusiness))
	{
		business.GET("/profile", h.Profile)
		business.PUT("/profile", h.UpdateProfile)
		business.GET("/pickups", h.Pickups)
		business.GET("/payments", h.Payments)
		business.GET("/eco-points", h.EcoPoints)
	}
}

// Profile handles GET /business/profile
// @Summary      Business profile with sustainability score
// @Tags         business
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.BusinessProfile}
// @Router       /business/profile [get]
func (h *BusinessHandler) Profile(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.businesses.Profile(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *BusinessHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.UpdateBusinessRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.businesses.UpdateProfile(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *BusinessHandler) Pickups(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)
	res, total, err := h.pickups.ListMine(c.Request.Context(), actor, pickupFilter(c, p))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, p, res, total)
}

// Payments handles GET /business/payments
// @Summary      Payment history
// @Tags         business
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PaymentResponse}
// @Router       /business/payments [get]
func (h *BusinessHandler) Payments(c *gin.Context) {
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

func (h *BusinessHandler) EcoPoints(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.businesses.EcoPoints(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}
