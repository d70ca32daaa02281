package handler

import (
	"log/slog"

	"bintobloom/internal/middleware"
	"bintobloom/internal/model"
	"bintobloom/internal/repository"
	"bintobloom/internal/service"
	"bintobloom/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	auth         *middleware.Auth
	log          *slog.Logger
}

func NewAuditHandler(auditService service.AuditService, auth *middleware.Auth, log *slog.Logger) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth, log: log}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/admin/audit-logs", h.auth.RequirePermission(model.PermAuditRead), h.ListAuditLogs)
}

// ListAuditLogs handles GET /admin/audit-logs
// @Summary      List audit logs
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        action     query     string  false  "Filter by action"
// @Param        entity_id  query     string  false  "Filter by entity"
// @Param        page       query     int     false  "Page number"
// @Param        limit      query     int     false  "Page size"
// @Success      200        {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /admin/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.AuditFilter{Action: c.Query("action"), EntityID: c.Query("entity_id")}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, p, logs, total)
}
