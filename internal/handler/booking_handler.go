package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/staybook/service-booking/internal/application"
	"github.com/staybook/service-booking/pkg/auth"
	"github.com/staybook/service-booking/pkg/middleware"
	"github.com/staybook/service-booking/pkg/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleGuest), h.CreateBooking)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", middleware.RequireRole(auth.RoleGuest, auth.RoleAdmin), h.RescheduleBooking)
		bookings.POST("/:id/approve", middleware.RequireRole(auth.RoleAdmin), h.ApproveBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}

	listings := r.Group("/api/v1/listings")
	listings.Use(authMW)
	{
		listings.POST("/:id/bookings", middleware.RequireRole(auth.RoleGuest), h.CreateListingBooking)
		listings.GET("/:id/bookings", middleware.RequireRole(auth.RoleHost, auth.RoleAdmin), h.ListListingBookings)
	}

	users := r.Group("/api/v1/users")
	users.Use(authMW)
	{
		users.GET("/:id/bookings", h.ListUserBookings)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// CreateListingBooking handles POST /api/v1/listings/:id/bookings.
func (h *BookingHandler) CreateListingBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	var req application.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, application.CreateBookingRequest{
		ListingID: listingID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ApproveBooking handles POST /api/v1/bookings/:id/approve.
func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.ApproveBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req application.CancelBookingRequest
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, userID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RescheduleBooking handles PUT /api/v1/bookings/:id.
func (h *BookingHandler) RescheduleBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req application.RescheduleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RescheduleBooking(c.Request.Context(), bookingID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListListingBookings handles GET /api/v1/listings/:id/bookings.
func (h *BookingHandler) ListListingBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListListingBookings(c.Request.Context(), listingID, userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ListUserBookings handles GET /api/v1/users/:id/bookings. Guests see their own;
// admins see anyone's.
func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	guestID, ok := selfOrAdmin(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListGuestBookings(c.Request.Context(), guestID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// selfOrAdmin parses the :id user path parameter and checks the caller is that
// user or an admin. It writes the error response itself.
func selfOrAdmin(c *gin.Context) (uuid.UUID, bool) {
	callerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, false
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user ID")
		return uuid.Nil, false
	}
	role, _ := middleware.GetUserRole(c)
	if targetID != callerID && role != auth.RoleAdmin {
		response.Forbidden(c, "you can only access your own resources")
		return uuid.Nil, false
	}
	return targetID, true
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
