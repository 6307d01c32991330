package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/staybook/service-booking/pkg/domain"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// NoContent writes an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a 200 envelope with pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"meta": meta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	})
}

// BadRequest writes a 400 validation error.
func BadRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// Unauthorized writes a 401.
func Unauthorized(c *gin.Context, message string) {
	writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden writes a 403.
func Forbidden(c *gin.Context, message string) {
	writeError(c, http.StatusForbidden, "FORBIDDEN", message)
}

// Error maps err to an HTTP status. Errors outside the domain taxonomy become 500.
func Error(c *gin.Context, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	writeError(c, StatusFor(de.Kind), de.Code, de.Message)
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidState:
		return http.StatusUnprocessableEntity
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   errorBody{Code: code, Message: message},
	})
}
