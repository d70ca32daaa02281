package handler

import (
	"log/slog"

	"bintobloom/internal/middleware"
	"bintobloom/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	householdBoardSize = 100
	businessBoardSize  = 50
)

type LeaderboardHandler struct {
	leaderboard service.LeaderboardService
	auth        *middleware.Auth
	log         *slog.Logger
}

func NewLeaderboardHandler(leaderboard service.LeaderboardService, auth *middleware.Auth, log *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard, auth: auth, log: log}
}

func (h *LeaderboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	board := router.Group("/leaderboard", h.auth.Authenticate())
	{
		board.GET("/household", h.Households)
		board.GET("/business", h.Businesses)
	}
}

// Households handles GET /leaderboard/household
// @Summary      Households ranked by eco points, then waste
// @Tags         leaderboard
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Entries (default 100)"
// @Success      200    {object}  response.Response{data=[]service.HouseholdLeaderboardEntry}
// @Router       /leaderboard/household [get]
func (h *LeaderboardHandler) Households(c *gin.Context) {
	res, err := h.leaderboard.HouseholdLeaderboard(c.Request.Context(), limitParam(c, householdBoardSize))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// Businesses handles GET /leaderboard/business
// @Summary      Businesses ranked by sustainability score
// @Tags         leaderboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.BusinessLeaderboardEntry}
// @Router       /leaderboard/business [get]
func (h *LeaderboardHandler) Businesses(c *gin.Context) {
	res, err := h.leaderboard.BusinessLeaderboard(c.Request.Context(), limitParam(c, businessBoardSize))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, res)
}
