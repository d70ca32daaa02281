package handler

import (
	"log/slog"
	"net/http"

	"bintobloom/internal/middleware"
	"bintobloom/internal/model"
	"bintobloom/internal/service"
	"bintobloom/pkg/pagination"
	"bintobloom/pkg/response"

	"github.com/gin-gonic/gin"
)

type PickupHandler struct {
	pickups service.PickupService
	auth    *middleware.Auth
	log     *slog.Logger
}

func NewPickupHandler(pickups service.PickupService, auth *middleware.Auth, log *slog.Logger) *PickupHandler {
	return &PickupHandler{pickups: pickups, auth: auth, log: log}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *PickupHandler) RegisterRoutes(router *gin.RouterGroup) {
	requester := h.auth.RequireRole(model.RoleHousehold, model.RoleBusiness)

	pickup := router.Group("/pickup")
	{
		pickup.POST("/request", requester, h.CreatePickup)
		pickup.GET("/:id", h.auth.Authenticate(), h.GetPickup)
		pickup.PUT("/:id", requester, h.UpdatePickup)
		pickup.DELETE("/:id", requester, h.DeletePickup)
		pickup.PUT("/:id/status", h.auth.RequireRole(model.RoleCollector, model.RoleAdmin), h.UpdateStatus)
		pickup.GET("/:id/tracking", h.auth.Authenticate(), h.ListTracking)
		pickup.POST("/:id/tracking", h.auth.RequireRole(model.RoleCollector), h.AddTracking)
	}
}

// CreatePickup handles POST /pickup/request
// @Summary      Request a pickup
// @Description  Schedules a waste pickup. Same-day requests need at least two hours of lead time.
// @Tags         pickups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.PickupInput  true  "Pickup request"
// @Success      201      {object}  response.Response{data=service.PickupResponse}
// @Failure      400      {object}  response.Response
// @Router       /pickup/request [post]
func (h *PickupHandler) CreatePickup(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.PickupInput
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.pickups.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// GetPickup handles GET /pickup/:id
// @Summary      Get a pickup
// @Tags         pickups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Pickup ID"
// @Success      200  {object}  response.Response{data=service.PickupResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /pickup/{id} [get]
func (h *PickupHandler) GetPickup(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.pickups.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// UpdatePickup handles PUT /pickup/:id
// @Summary      Reschedule a pending pickup
// @Tags         pickups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Pickup ID"
// @Param        payload  body      service.PickupInput  true  "Pickup request"
// @Success      200      {object}  response.Response{data=service.PickupResponse}
// @Failure      400      {object}  response.Response
// @Router       /pickup/{id} [put]
func (h *PickupHandler) UpdatePickup(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.PickupInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.pickups.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// DeletePickup handles DELETE /pickup/:id
// @Summary      Cancel a pending pickup
// @Tags         pickups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Pickup ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /pickup/{id} [delete]
func (h *PickupHandler) DeletePickup(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	if err := h.pickups.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"message": "Pickup deleted"})
}

// UpdateStatus handles PUT /pickup/:id/status
// @Summary      Move a pickup through the status table
// @Description  Accepts PENDING or PAID. Assignment, completion and billing have their own endpoints.
// @Tags         pickups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string         true  "Pickup ID"
// @Param        payload  body      statusRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=service.PickupResponse}
// @Failure      400      {object}  response.Response
// @Router       /pickup/{id}/status [put]
func (h *PickupHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.pickups.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// ListTracking handles GET /pickup/:id/tracking
// @Summary      Collector positions recorded for a pickup
// @Tags         pickups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Pickup ID"
// @Success      200  {object}  response.Response{data=[]service.TrackingResponse}
// @Router       /pickup/{id}/tracking [get]
func (h *PickupHandler) ListTracking(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.pickups.ListTracking(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// AddTracking handles POST /pickup/:id/tracking
// @Summary      Record the collector's position
// @Tags         collector
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Pickup ID"
// @Param        payload  body      service.TrackingInput  true  "Position"
// @Success      201      {object}  response.Response{data=service.TrackingResponse}
// @Router       /pickup/{id}/tracking [post]
func (h *PickupHandler) AddTracking(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.TrackingInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.pickups.AddTracking(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

func pickupFilter(c *gin.Context, p pagination.Params) service.PickupFilter {
	return service.PickupFilter{Status: c.Query("status"), Page: p.Page, Limit: p.Limit}
}
