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

// ListingHandler handles HTTP requests for listings, their calendar and quotes.
type ListingHandler struct {
	service  *application.ListingService
	bookings *application.BookingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(service *application.ListingService, bookings *application.BookingService) *ListingHandler {
	return &ListingHandler{service: service, bookings: bookings}
}

// RegisterRoutes registers listing routes. Reads are public.
func (h *ListingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	public := r.Group("/api/v1/listings")
	{
		public.GET("", h.ListListings)
		public.GET("/:id", h.GetListing)
		public.GET("/:id/availability", h.GetAvailability)
		public.GET("/:id/quote", h.Quote)
	}

	listings := r.Group("/api/v1/listings")
	listings.Use(authMW)
	{
		listings.POST("", middleware.RequireRole(auth.RoleHost), h.CreateListing)
		listings.PATCH("/:id", middleware.RequireRole(auth.RoleHost, auth.RoleAdmin), h.UpdateListing)
		listings.DELETE("/:id", middleware.RequireRole(auth.RoleHost, auth.RoleAdmin), h.ArchiveListing)
	}

	users := r.Group("/api/v1/users")
	users.Use(authMW)
	{
		users.GET("/:id/listings", h.ListHostListings)
	}
}

// CreateListing handles POST /api/v1/listings.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateListing(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListListings handles GET /api/v1/listings.
func (h *ListingHandler) ListListings(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.service.ListListings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetListing handles GET /api/v1/listings/:id.
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	result, err := h.service.GetListing(c.Request.Context(), listingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateListing handles PATCH /api/v1/listings/:id.
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, _ := middleware.GetUserRole(c)

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	var req application.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateListing(c.Request.Context(), listingID, userID, role, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ArchiveListing handles DELETE /api/v1/listings/:id. The listing is archived, not removed.
func (h *ListingHandler) ArchiveListing(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, _ := middleware.GetUserRole(c)

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	if err := h.service.ArchiveListing(c.Request.Context(), listingID, userID, role); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// GetAvailability handles GET /api/v1/listings/:id/availability.
func (h *ListingHandler) GetAvailability(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	result, err := h.service.GetAvailability(c.Request.Context(), listingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Quote handles GET /api/v1/listings/:id/quote?start_date=&end_date=.
func (h *ListingHandler) Quote(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	var req application.QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.bookings.ComputePrice(c.Request.Context(), listingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListHostListings handles GET /api/v1/users/:id/listings.
func (h *ListingHandler) ListHostListings(c *gin.Context) {
	hostID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user ID")
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListHostListings(c.Request.Context(), hostID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}
