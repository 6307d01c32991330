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

// ReviewHandler handles HTTP requests for listing reviews.
type ReviewHandler struct {
	service *application.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *application.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers review routes. Approved listing reviews are public.
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	r.GET("/api/v1/listings/:id/reviews", h.ListListingReviews)

	reviews := r.Group("/api/v1/reviews")
	reviews.Use(authMW)
	{
		reviews.POST("", middleware.RequireRole(auth.RoleGuest), h.CreateReview)
		reviews.POST("/:id/approve", middleware.RequireRole(auth.RoleAdmin), h.ApproveReview)
	}

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.GET("/:id/reviews", h.GetBookingReview)
	}

	users := r.Group("/api/v1/users")
	users.Use(authMW)
	{
		users.GET("/:id/reviews", h.ListUserReviews)
	}
}

// CreateReview handles POST /api/v1/reviews.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateReview(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ApproveReview handles POST /api/v1/reviews/:id/approve.
func (h *ReviewHandler) ApproveReview(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid review ID")
		return
	}

	result, err := h.service.ApproveReview(c.Request.Context(), reviewID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListListingReviews handles GET /api/v1/listings/:id/reviews.
func (h *ReviewHandler) ListListingReviews(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListListingReviews(c.Request.Context(), listingID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBookingReview handles GET /api/v1/bookings/:id/reviews.
func (h *ReviewHandler) GetBookingReview(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBookingReview(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListUserReviews handles GET /api/v1/users/:id/reviews.
func (h *ReviewHandler) ListUserReviews(c *gin.Context) {
	userID, ok := selfOrAdmin(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListUserReviews(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}
