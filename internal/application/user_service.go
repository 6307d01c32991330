package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	userDomain "github.com/staybook/service-booking/internal/domain/user"
	"github.com/staybook/service-booking/pkg/auth"
	"github.com/staybook/service-booking/pkg/domain"
	"go.uber.org/zap"
)

// RegisterRequest is the request DTO for creating an account.
type RegisterRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Role        string `json:"role" binding:"required"`
	Bio         string `json:"bio"`
	Password    string `json:"password" binding:"required,min=8"`
}

// TokenRequest exchanges credentials for an access token.
type TokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries optional profile fields.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Bio         *string `json:"bio"`
}

// UserDTO is the API response representation of a user.
type UserDTO struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Role        string    `json:"role"`
	Bio         string    `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TokenDTO is an issued token pair.
type TokenDTO struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	TokenType        string    `json:"token_type"`
	User             UserDTO   `json:"user"`
}

// UserService manages accounts and issues tokens.
type UserService struct {
	repo       userDomain.UserRepository
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo userDomain.UserRepository, jwtManager *auth.JWTManager, logger *zap.Logger) *UserService {
	return &UserService{
		repo:       repo,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Register creates an account. The role is fixed at creation.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	role, err := userDomain.ParseRole(strings.ToLower(req.Role))
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil && !domain.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, userDomain.ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := userDomain.NewUser(req.FirstName, req.LastName, req.Email, req.PhoneNumber, role, req.Bio, hash)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", u.ID().String()),
		zap.String("role", u.Role().String()),
	)

	result := toUserDTO(u)
	return &result, nil
}

// IssueToken checks credentials and returns a signed token pair.
func (s *UserService) IssueToken(ctx context.Context, req TokenRequest) (*TokenDTO, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, userDomain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash(), req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, userDomain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to check password: %w", err)
	}

	access, accessExp, err := s.jwtManager.GenerateAccessToken(u.ID(), u.Email(), u.Role().String())
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, refreshExp, err := s.jwtManager.GenerateRefreshToken(u.ID(), u.Email(), u.Role().String())
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &TokenDTO{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		TokenType:        "Bearer",
		User:             toUserDTO(u),
	}, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toUserDTO(u)
	return &result, nil
}

// ListUsers returns a page of users, optionally filtered by role.
func (s *UserService) ListUsers(ctx context.Context, role string, page, limit int) (*domain.PaginatedResult[UserDTO], error) {
	var filter *userDomain.Role
	if role != "" {
		parsed, err := userDomain.ParseRole(strings.ToLower(role))
		if err != nil {
			return nil, err
		}
		filter = &parsed
	}

	users, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// UpdateProfile edits a user's own profile. Admins may edit anyone.
func (s *UserService) UpdateProfile(ctx context.Context, id, actorID uuid.UUID, actorRole string, req UpdateProfileRequest) (*UserDTO, error) {
	if id != actorID && actorRole != auth.RoleAdmin {
		return nil, domain.NewForbiddenError("you can only edit your own profile")
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.UpdateProfile(req.FirstName, req.LastName, req.PhoneNumber, req.Bio); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user profile updated", zap.String("user_id", id.String()))

	result := toUserDTO(u)
	return &result, nil
}

func toUserDTO(u *userDomain.User) UserDTO {
	return UserDTO{
		ID:          u.ID(),
		FirstName:   u.FirstName(),
		LastName:    u.LastName(),
		Email:       u.Email(),
		PhoneNumber: u.PhoneNumber(),
		Role:        u.Role().String(),
		Bio:         u.Bio(),
		CreatedAt:   u.CreatedAt(),
		UpdatedAt:   u.UpdatedAt(),
	}
}
