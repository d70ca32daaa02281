package handler

import (
	"log/slog"

	"bintobloom/internal/middleware"
	"bintobloom/internal/model"
	"bintobloom/internal/service"
	"bintobloom/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type CollectorHandler struct {
	collectors service.CollectorService
	pickups    service.PickupService
	billing    service.BillingService
	auth       *middleware.Auth
	log        *slog.Logger
}

func NewCollectorHandler(collectors service.CollectorService, pickups service.PickupService, billing service.BillingService, auth *middleware.Auth, log *slog.Logger) *CollectorHandler {
	return &CollectorHandler{collectors: collectors, pickups: pickups, billing: billing, auth: auth, log: log}
}

func (h *CollectorHandler) RegisterRoutes(router *gin.RouterGroup) {
	collector := router.Group("/collector", h.auth.RequireRole(model.RoleCollector))
	{
		collector.GET("/dashboard", h.Dashboard)
		collector.GET("/profile", h.Profile)
		collector.PUT("/profile", h.UpdateProfile)
		collector.PUT("/status", h.UpdateStatus)
		collector.PUT("/location", h.UpdateLocation)
		collector.GET("/pickups/assigned", h.Assigned)
		collector.GET("/pickups/available", h.Available)
		collector.POST("/pickup/:id/accept", h.Accept)
		collector.POST("/pickup/:id/reject", h.Reject)
		collector.POST("/pickup/:id/complete", h.Complete)
		collector.POST("/pickup/:id/generate-bill", h.GenerateBill)
	}
}

// Dashboard handles GET /collector/dashboard
// @Summary      Collector pickup counts
// @Tags         collector
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.CollectorDashboard}
// @Router       /collector/dashboard [get]
func (h *CollectorHandler) Dashboard(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.collectors.Dashboard(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *CollectorHandler) Profile(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.collectors.Profile(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *CollectorHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.collectors.UpdateProfile(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// UpdateStatus handles PUT /collector/status
// @Summary      Set collector availability
// @Tags         collector
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CollectorStatusRequest  true  "ACTIVE or BUSY"
// @Success      200      {object}  response.Response{data=service.CollectorProfile}
// @Router       /collector/status [put]
func (h *CollectorHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.CollectorStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.collectors.UpdateStatus(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *CollectorHandler) UpdateLocation(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.LocationRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.collectors.UpdateLocation(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// Assigned handles GET /collector/pickups/assigned
// @Summary      Pickups assigned to the caller
// @Tags         collector
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {object}  response.Response{data=[]service.PickupResponse}
// @Router       /collector/pickups/assigned [get]
func (h *CollectorHandler) Assigned(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)
	res, total, err := h.pickups.ListAssigned(c.Request.Context(), actor, pickupFilter(c, p))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, p, res, total)
}

// Available handles GET /collector/pickups/available
// @Summary      Unassigned pending pickups, earliest first
// @Tags         collector
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PickupResponse}
// @Router       /collector/pickups/available [get]
func (h *CollectorHandler) Available(c *gin.Context) {
	res, err := h.pickups.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// Accept handles POST /collector/pickup/:id/accept
// @Summary      Claim a pending pickup
// @Tags         collector
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Pickup ID"
// @Success      200  {object}  response.Response{data=service.PickupResponse}
// @Failure      400  {object}  response.Response
// @Router       /collector/pickup/{id}/accept [post]
func (h *CollectorHandler) Accept(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.pickups.Accept(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// Reject handles POST /collector/pickup/:id/reject
// @Summary      Hand an assigned pickup back to the pool
// @Tags         collector
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Pickup ID"
// @Success      200  {object}  response.Response{data=service.PickupResponse}
// @Failure      400  {object}  response.Response
// @Router       /collector/pickup/{id}/reject [post]
func (h *CollectorHandler) Reject(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.pickups.Reject(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// Complete handles POST /collector/pickup/:id/complete
// @Summary      Record the collected weight and award eco points
// @Tags         collector
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Pickup ID"
// @Param        payload  body      service.CompletePickupRequest  true  "Collection details"
// @Success      200      {object}  response.Response{data=service.CompletionResponse}
// @Failure      400      {object}  response.Response
// @Router       /collector/pickup/{id}/complete [post]
func (h *CollectorHandler) Complete(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.CompletePickupRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.pickups.Complete(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// GenerateBill handles POST /collector/pickup/:id/generate-bill
// @Summary      Bill a business pickup
// @Tags         collector
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Pickup ID"
// @Param        payload  body      service.GenerateBillRequest  true  "Amount and weight"
// @Success      200      {object}  response.Response{data=service.BillResponse}
// @Failure      400      {object}  response.Response
// @Router       /collector/pickup/{id}/generate-bill [post]
func (h *CollectorHandler) GenerateBill(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.GenerateBillRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.billing.GenerateBill(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}
