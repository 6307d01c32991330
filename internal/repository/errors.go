package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	bookingDomain "github.com/staybook/service-booking/internal/domain/booking"
	paymentDomain "github.com/staybook/service-booking/internal/domain/payment"
	reviewDomain "github.com/staybook/service-booking/internal/domain/review"
	userDomain "github.com/staybook/service-booking/internal/domain/user"
	"github.com/staybook/service-booking/pkg/domain"
)

// Postgres SQLSTATE codes the repositories care about.
const (
	sqlStateUniqueViolation    = "23505"
	sqlStateExclusionViolation = "23P01"
	sqlStateCheckViolation     = "23514"
	sqlStateTooManyConnections = "53300"
	sqlStateAdminShutdown      = "57P01"
	sqlStateCannotConnectNow   = "57P03"
	sqlStateClassConnection    = "08"
)

// translateError maps driver failures onto the domain taxonomy. Errors that are
// already domain errors pass through untouched.
func translateError(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.AsDomainError(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == sqlStateExclusionViolation:
			return bookingDomain.ErrDateConflict
		case pgErr.Code == sqlStateUniqueViolation:
			return uniqueViolation(pgErr)
		case pgErr.Code == sqlStateCheckViolation:
			return domain.NewValidationError(fmt.Sprintf("constraint %s violated", pgErr.ConstraintName))
		case pgErr.Code == sqlStateTooManyConnections,
			pgErr.Code == sqlStateAdminShutdown,
			pgErr.Code == sqlStateCannotConnectNow,
			strings.HasPrefix(pgErr.Code, sqlStateClassConnection):
			return unavailable(err, op)
		}
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	if isConnectionError(err) {
		return unavailable(err, op)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func uniqueViolation(pgErr *pgconn.PgError) error {
	switch pgErr.ConstraintName {
	case "idx_payments_booking_id":
		return paymentDomain.ErrDuplicatePayment
	case "idx_payments_transaction_id":
		return domain.NewConflictError("transaction ID already recorded")
	case "idx_reviews_booking_id":
		return reviewDomain.ErrDuplicateReview
	case "idx_users_email":
		return userDomain.ErrEmailTaken
	default:
		return domain.NewConflictError("duplicate value violates " + pgErr.ConstraintName)
	}
}

func isConnectionError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}

func unavailable(err error, op string) error {
	return fmt.Errorf("failed to %s: %w: %v", op, domain.ErrStorageUnavailable, err)
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
