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

// PaymentHandler handles HTTP requests for booking payments.
type PaymentHandler struct {
	service  *application.PaymentService
	bookings *application.BookingService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService, bookings *application.BookingService) *PaymentHandler {
	return &PaymentHandler{service: service, bookings: bookings}
}

// RegisterRoutes registers payment routes.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("/:id/payments", middleware.RequireRole(auth.RoleGuest, auth.RoleAdmin), h.RecordPayment)
		bookings.GET("/:id/payments", h.GetBookingPayment)
	}

	payments := r.Group("/api/v1/payments")
	payments.Use(authMW)
	{
		payments.GET("/:id", h.GetPayment)
		payments.PATCH("/:id/status", middleware.RequireRole(auth.RoleAdmin), h.UpdatePaymentStatus)
	}

	users := r.Group("/api/v1/users")
	users.Use(authMW)
	{
		users.GET("/:id/payments", h.ListUserPayments)
	}
}

// RecordPayment handles POST /api/v1/bookings/:id/payments.
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	bookingID, ok := h.visibleBooking(c)
	if !ok {
		return
	}

	var req application.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RecordPayment(c.Request.Context(), bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetBookingPayment handles GET /api/v1/bookings/:id/payments.
func (h *PaymentHandler) GetBookingPayment(c *gin.Context) {
	bookingID, ok := h.visibleBooking(c)
	if !ok {
		return
	}

	result, err := h.service.GetBookingPayment(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetPayment handles GET /api/v1/payments/:id.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, _ := middleware.GetUserRole(c)

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	result, err := h.service.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.UserID != userID && role != auth.RoleAdmin {
		response.Forbidden(c, "you can only view your own payments")
		return
	}

	response.Success(c, result)
}

// UpdatePaymentStatus handles PATCH /api/v1/payments/:id/status.
func (h *PaymentHandler) UpdatePaymentStatus(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	var req application.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePaymentStatus(c.Request.Context(), paymentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListUserPayments handles GET /api/v1/users/:id/payments.
func (h *PaymentHandler) ListUserPayments(c *gin.Context) {
	userID, ok := selfOrAdmin(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListUserPayments(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// visibleBooking parses the :id booking parameter and checks the caller may
// view that booking. It writes the error response itself.
func (h *PaymentHandler) visibleBooking(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return uuid.Nil, false
	}

	if _, err := h.bookings.GetBooking(c.Request.Context(), bookingID, userID); err != nil {
		response.Error(c, err)
		return uuid.Nil, false
	}
	return bookingID, true
}
