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

// StatisticsHandler serves waste analytics and the NGO workspace built on them.
type StatisticsHandler struct {
	analytics service.AnalyticsService
	ngos      service.NGOService
	auth      *middleware.Auth
	log       *slog.Logger
}

func NewStatisticsHandler(analytics service.AnalyticsService, ngos service.NGOService, auth *middleware.Auth, log *slog.Logger) *StatisticsHandler {
	return &StatisticsHandler{analytics: analytics, ngos: ngos, auth: auth, log: log}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	analytics := router.Group("/analytics", h.auth.RequirePermission(model.PermAnalyticsRead))
	{
		analytics.GET("/global", h.GetGlobalAnalytics)
		analytics.GET("/city", h.GetCityAnalytics)
		analytics.GET("/waste-by-city", h.GetWasteByCity)
	}

	ngo := router.Group("/ngo", h.auth.RequireRole(model.RoleNGO))
	{
		ngo.GET("/dashboard", h.GetNGODashboard)
		ngo.GET("/city-waste", h.GetWasteByCity)
		ngo.GET("/reports", h.ListReports)
		ngo.POST("/reports", h.auth.RequirePermission(model.PermReportsWrite), h.CreateReport)
	}
}

// GetGlobalAnalytics handles GET /analytics/global
// @Summary      Global waste analytics
// @Description  Waste totals by city and type, carbon saved and pickup status counts
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  false  "Start (YYYY-MM-DD or RFC3339)"
// @Param        to    query     string  false  "End (YYYY-MM-DD or RFC3339)"
// @Success      200   {object}  response.Response{data=model.GlobalAnalytics}
// @Router       /analytics/global [get]
func (h *StatisticsHandler) GetGlobalAnalytics(c *gin.Context) {
	tr, ok := timeRange(c)
	if !ok {
		return
	}
	res, err := h.analytics.GlobalAnalytics(c.Request.Context(), tr)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// GetCityAnalytics handles GET /analytics/city?city=
// @Summary      City waste analytics
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        city  query     string  true   "City"
// @Param        from  query     string  false  "Start"
// @Param        to    query     string  false  "End"
// @Success      200   {object}  response.Response{data=model.CityAnalytics}
// @Failure      400   {object}  response.Response
// @Router       /analytics/city [get]
func (h *StatisticsHandler) GetCityAnalytics(c *gin.Context) {
	tr, ok := timeRange(c)
	if !ok {
		return
	}
	res, err := h.analytics.CityAnalytics(c.Request.Context(), c.Query("city"), tr)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// GetWasteByCity handles GET /analytics/waste-by-city and GET /ngo/city-waste
// @Summary      Waste collected per city
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.CityWaste}
// @Router       /analytics/waste-by-city [get]
func (h *StatisticsHandler) GetWasteByCity(c *gin.Context) {
	tr, ok := timeRange(c)
	if !ok {
		return
	}
	res, err := h.analytics.WasteByCity(c.Request.Context(), tr)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// GetNGODashboard handles GET /ngo/dashboard
// @Summary      NGO dashboard
// @Tags         ngo
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.NGODashboard}
// @Router       /ngo/dashboard [get]
func (h *StatisticsHandler) GetNGODashboard(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.ngos.Dashboard(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// CreateReport handles POST /ngo/reports
// @Summary      Snapshot a city impact report
// @Tags         ngo
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  response.Response{data=service.NGOReportResponse}
// @Router       /ngo/reports [post]
func (h *StatisticsHandler) CreateReport(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.ngos.CreateReport(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListReports handles GET /ngo/reports
// @Summary      List the NGO's reports
// @Tags         ngo
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.NGOReportResponse}
// @Router       /ngo/reports [get]
func (h *StatisticsHandler) ListReports(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	res, err := h.ngos.ListReports(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}
