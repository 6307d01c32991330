package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/staybook/service-booking/internal/application"
	"github.com/staybook/service-booking/pkg/auth"
	"github.com/staybook/service-booking/pkg/middleware"
	"github.com/staybook/service-booking/pkg/response"
)

// MessageHandler handles HTTP requests for user-to-user messages.
type MessageHandler struct {
	service *application.MessageService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service *application.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// RegisterRoutes registers message routes.
func (h *MessageHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	messages := r.Group("/api/v1/messages")
	messages.Use(authMW)
	{
		messages.POST("", h.SendMessage)
		messages.POST("/:id/read", h.MarkRead)
	}

	users := r.Group("/api/v1/users")
	users.Use(authMW)
	{
		users.GET("/:id/messages", h.ListMessages)
	}
}

// SendMessage handles POST /api/v1/messages.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SendMessage(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListMessages handles GET /api/v1/users/:id/messages?box=sent&unread=true.
// Mailboxes are private, admins included.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	callerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user ID")
		return
	}
	if userID != callerID {
		response.Forbidden(c, "you can only read your own messages")
		return
	}

	page, limit := parsePagination(c)
	if c.Query("box") == "sent" {
		sent, err := h.service.ListSent(c.Request.Context(), userID, page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Paginated(c, sent.Items, sent.Total, sent.Page, sent.Limit)
		return
	}

	inbox, err := h.service.ListInbox(c.Request.Context(), userID, c.Query("unread") == "true", page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, inbox.Items, inbox.Total, inbox.Page, inbox.Limit)
}

// MarkRead handles POST /api/v1/messages/:id/read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid message ID")
		return
	}

	result, err := h.service.MarkRead(c.Request.Context(), messageID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
