package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/staybook/service-booking/internal/application"
	"github.com/staybook/service-booking/pkg/response"
)

// AuthHandler handles account registration and token issuance.
type AuthHandler struct {
	service *application.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *application.UserService) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRoutes registers the unauthenticated auth routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/token", h.IssueToken)
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req application.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// IssueToken handles POST /api/v1/auth/token.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req application.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
