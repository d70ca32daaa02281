package handler

import (
	"log/slog"
	"net/http"
	"time"

	"bintobloom/internal/middleware"
	"bintobloom/internal/model"
	"bintobloom/internal/service"
	"bintobloom/pkg/pagination"
	"bintobloom/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService   service.UserService
	auth          *middleware.Auth
	tokenTTL      time.Duration
	secureCookies bool
	log           *slog.Logger
}

// NewUserHandler sets up the routing dependencies for account endpoints
func NewUserHandler(userService service.UserService, auth *middleware.Auth, tokenTTL time.Duration, secureCookies bool, log *slog.Logger) *UserHandler {
	return &UserHandler{userService: userService, auth: auth, tokenTTL: tokenTTL, secureCookies: secureCookies, log: log}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.auth.Authenticate(), h.GetMe)
	}

	users := router.Group("/admin/users", h.auth.RequirePermission(model.PermUsersManage))
	{
		users.GET("", h.ListUsers)
		users.PUT("/:id/status", h.UpdateUserStatus)
	}
}

// Register handles POST /auth/register
// @Summary      Register an account
// @Description  Creates a household, business, collector or NGO account together with its detail record
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// Login handles POST /auth/login to authenticate and return a JWT token
// @Summary      Login user
// @Description  Authenticates a user by email and password, returning a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest   true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	tokenRes, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	middleware.SetTokenCookie(c, tokenRes.Token, h.tokenTTL, h.secureCookies)
	respondOK(c, tokenRes)
}

// Logout handles POST /auth/logout by clearing the token cookie
// @Summary      Logout user
// @Tags         auth
// @Produce      json
// @Success      200      {object}  response.Response
// @Router       /auth/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c, h.secureCookies)
	respondOK(c, gin.H{"message": "Logged out successfully"})
}

type meResponse struct {
	service.UserResponse
	Permissions []string `json:"permissions"`
}

// GetMe handles GET /auth/me to return the current authenticated user
// @Summary      Get current user
// @Description  Get the currently authenticated user and the permission codes of their role
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=meResponse}
// @Failure      401      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /auth/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}

	user, err := h.userService.Me(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	perms, err := h.auth.PermissionsFor(c.Request.Context(), actor.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if perms == nil {
		perms = []string{}
	}

	respondOK(c, meResponse{UserResponse: user, Permissions: perms})
}

// ListUsers handles GET /admin/users
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role   query     string  false  "Filter by role"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.UserResponse}
// @Router       /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), c.Query("role"), p.Page, p.Limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, p, users, total)
}

// UpdateUserStatus handles PUT /admin/users/:id/status
// @Summary      Activate or deactivate a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "User ID"
// @Param        payload  body      service.UpdateUserStatusRequest  true  "New status"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/users/{id}/status [put]
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.UpdateUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUserStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, user)
}
