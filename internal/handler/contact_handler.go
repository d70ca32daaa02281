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

type ContactHandler struct {
	contactService service.ContactService
	auth           *middleware.Auth
	log            *slog.Logger
}

func NewContactHandler(contactService service.ContactService, auth *middleware.Auth, log *slog.Logger) *ContactHandler {
	return &ContactHandler{contactService: contactService, auth: auth, log: log}
}

func (h *ContactHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/contact", h.Submit)

	messages := router.Group("/admin/messages", h.auth.RequirePermission(model.PermMessagesRead))
	{
		messages.GET("", h.List)
		messages.PUT("/:id/read", h.MarkRead)
	}
}

// Submit handles POST /contact
// @Summary      Send a contact message
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ContactRequest  true  "Message"
// @Success      201      {object}  response.Response{data=service.ContactResponse}
// @Failure      400      {object}  response.Response
// @Router       /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req service.ContactRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.contactService.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, msg))
}

// List handles GET /admin/messages
// @Summary      List contact messages
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ContactResponse}
// @Failure      500  {object}  response.Response
// @Router       /admin/messages [get]
func (h *ContactHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	msgs, total, err := h.contactService.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, p, msgs, total)
}

// MarkRead handles PUT /admin/messages/:id/read
// @Summary      Mark a contact message read
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Message ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/messages/{id}/read [put]
func (h *ContactHandler) MarkRead(c *gin.Context) {
	if err := h.contactService.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"message": "Message marked as read"})
}
