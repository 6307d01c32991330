package user

import "github.com/staybook/service-booking/pkg/domain"

var (
	ErrEmailTaken         = domain.New(domain.KindConflict, "EMAIL_TAKEN", "email is already registered")
	ErrInvalidCredentials = domain.New(domain.KindUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
)
