package handler

import (
	"log/slog"

	"bintobloom/internal/middleware"
	"bintobloom/internal/model"
	"bintobloom/internal/service"
	"bintobloom/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	admin   service.AdminService
	pickups service.PickupService
	revenue service.RevenueService
	auth    *middleware.Auth
	log     *slog.Logger
}

func NewAdminHandler(admin service.AdminService, pickups service.PickupService, revenue service.RevenueService, auth *middleware.Auth, log *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, pickups: pickups, revenue: revenue, auth: auth, log: log}
}

type assignRequest struct {
	CollectorID string `json:"collector_id" binding:"required,uuid"`
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	{
		admin.GET("/dashboard", h.auth.RequirePermission(model.PermAnalyticsRead), h.Dashboard)
		admin.GET("/report", h.auth.RequirePermission(model.PermAnalyticsRead), h.SystemReport)
		admin.GET("/revenue", h.auth.RequirePermission(model.PermAnalyticsRead), h.GetRevenueStatistics)

		pickups := admin.Group("/pickups")
		pickups.GET("", h.auth.RequirePermission(model.PermPickupsRead), h.ListPickups)
		pickups.GET("/search", h.auth.RequirePermission(model.PermPickupsRead), h.SearchPickups)
		pickups.POST("/:id/assign", h.auth.RequirePermission(model.PermPickupsAssign), h.AssignPickup)
		pickups.POST("/:id/finalize", h.auth.RequirePermission(model.PermPickupsAssign), h.FinalizePickup)
	}
}

// Dashboard handles GET /admin/dashboard
// @Summary      Platform totals
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.AdminDashboard}
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	res, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// SystemReport handles GET /admin/report
// @Summary      System report with waste by city and type
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.SystemReport}
// @Router       /admin/report [get]
func (h *AdminHandler) SystemReport(c *gin.Context) {
	res, err := h.admin.SystemReport(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// GetRevenueStatistics returns settled payment totals grouped by period
// @Summary      Revenue by period
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        group_by  query     string  false  "week, month (default), quarter or year"
// @Param        from      query     string  false  "Start (YYYY-MM-DD or RFC3339)"
// @Param        to        query     string  false  "End (YYYY-MM-DD or RFC3339)"
// @Success      200       {object}  response.Response{data=[]service.RevenueDataPoint}
// @Failure      400       {object}  response.Response
// @Router       /admin/revenue [get]
func (h *AdminHandler) GetRevenueStatistics(c *gin.Context) {
	tr, ok := timeRange(c)
	if !ok {
		return
	}
	data, err := h.revenue.GetRevenueStatistics(c.Request.Context(), service.RevenueFilter{GroupBy: c.Query("group_by"), Range: tr})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, data)
}

// ListPickups handles GET /admin/pickups
// @Summary      All pickups
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]service.PickupResponse}
// @Router       /admin/pickups [get]
func (h *AdminHandler) ListPickups(c *gin.Context) {
	p := pagination.Parse(c)
	res, total, err := h.pickups.ListAll(c.Request.Context(), pickupFilter(c, p))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, p, res, total)
}

// SearchPickups handles GET /admin/pickups/search
// @Summary      Full-text pickup search
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        q       query     string  false  "Text query"
// @Param        status  query     string  false  "Status"
// @Param        city    query     string  false  "City"
// @Success      200     {object}  response.Response{data=[]service.PickupSearchHit}
// @Router       /admin/pickups/search [get]
func (h *AdminHandler) SearchPickups(c *gin.Context) {
	p := pagination.Parse(c)
	req := service.PickupSearchRequest{
		Q:      c.Query("q"),
		Status: c.Query("status"),
		City:   c.Query("city"),
		Page:   p.Page,
		Limit:  p.Limit,
	}
	hits, total, err := h.admin.SearchPickups(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, p, hits, total)
}

// AssignPickup handles POST /admin/pickups/:id/assign
// @Summary      Assign a collector
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string         true  "Pickup ID"
// @Param        payload  body      assignRequest  true  "Collector"
// @Success      200      {object}  response.Response{data=service.PickupResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/pickups/{id}/assign [post]
func (h *AdminHandler) AssignPickup(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req assignRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.pickups.Assign(c.Request.Context(), actor, c.Param("id"), req.CollectorID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// FinalizePickup handles POST /admin/pickups/:id/finalize
// @Summary      Complete a billed or offline-paid pickup
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Pickup ID"
// @Success      200  {object}  response.Response{data=service.CompletionResponse}
// @Failure      400  {object}  response.Response
// @Router       /admin/pickups/{id}/finalize [post]
func (h *AdminHandler) FinalizePickup(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.pickups.Finalize(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}
