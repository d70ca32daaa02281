package handler

import (
	"log/slog"

	"bintobloom/internal/middleware"
	"bintobloom/internal/model"
	"bintobloom/internal/service"
	"bintobloom/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type HouseholdHandler struct {
	households service.HouseholdService
	pickups    service.PickupService
	auth       *middleware.Auth
	log        *slog.Logger
}

func NewHouseholdHandler(households service.HouseholdService, pickups service.PickupService, auth *middleware.Auth, log *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: households, pickups: pickups, auth: auth, log: log}
}

func (h *HouseholdHandler) RegisterRoutes(router *gin.RouterGroup) {
	household := router.Group("/household", h.auth.RequireRole(model.RoleHousehold))
	{
		household.GET("/profile", h.Profile)
		household.PUT("/profile", h.UpdateProfile)
		household.GET("/pickups", h.Pickups)
		household.GET("/leaderboard-position", h.Position)
		household.GET("/tracking", h.Tracking)
		household.GET("/eco-points", h.EcoPoints)
	}
}

// Profile handles GET /household/profile
// @Summary      Household profile with environmental impact
// @Tags         household
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.HouseholdProfile}
// @Router       /household/profile [get]
func (h *HouseholdHandler) Profile(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.households.Profile(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *HouseholdHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.households.UpdateProfile(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *HouseholdHandler) Pickups(c *gin.Context) {
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

// Position handles GET /household/leaderboard-position
// @Summary      The caller's rank on the household leaderboard
// @Tags         household
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.RankResponse}
// @Failure      404  {object}  response.Response
// @Router       /household/leaderboard-position [get]
func (h *HouseholdHandler) Position(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.households.Position(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *HouseholdHandler) Tracking(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.households.Tracking(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// EcoPoints handles GET /household/eco-points
// @Summary      Eco point totals and recent rewards
// @Tags         household
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.EcoPointsSummary}
// @Router       /household/eco-points [get]
func (h *HouseholdHandler) EcoPoints(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.households.EcoPoints(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}
