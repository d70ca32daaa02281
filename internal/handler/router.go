package handler

import (
	"log/slog"
	"time"

	"bintobloom/internal/middleware"
	"bintobloom/internal/service"

	"github.com/gin-gonic/gin"
)

// RouterConfig carries the HTTP-only settings the handlers need.
type RouterConfig struct {
	TokenTTL      time.Duration
	SecureCookies bool
	Logger        *slog.Logger
}

// RegisterAll mounts every API handler on api.
func RegisterAll(api *gin.RouterGroup, svc *service.Services, auth *middleware.Auth, cfg RouterConfig) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	NewUserHandler(svc.Users, auth, cfg.TokenTTL, cfg.SecureCookies, log).RegisterRoutes(api)
	NewRoleHandler(svc.Roles, auth, log).RegisterRoutes(api)
	NewAuditHandler(svc.Audit, auth, log).RegisterRoutes(api)
	NewPickupHandler(svc.Pickups, auth, log).RegisterRoutes(api)
	NewHouseholdHandler(svc.Households, svc.Pickups, auth, log).RegisterRoutes(api)
	NewBusinessHandler(svc.Businesses, svc.Pickups, svc.Billing, auth, log).RegisterRoutes(api)
	NewCollectorHandler(svc.Collectors, svc.Pickups, svc.Billing, auth, log).RegisterRoutes(api)
	NewPaymentHandler(svc.Billing, auth, log).RegisterRoutes(api)
	NewLeaderboardHandler(svc.Leaderboard, auth, log).RegisterRoutes(api)
	NewStatisticsHandler(svc.Analytics, svc.NGOs, auth, log).RegisterRoutes(api)
	NewAdminHandler(svc.Admin, svc.Pickups, svc.Revenue, auth, log).RegisterRoutes(api)
	NewContactHandler(svc.Contacts, auth, log).RegisterRoutes(api)
}
