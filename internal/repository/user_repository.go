package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	userDomain "github.com/staybook/service-booking/internal/domain/user"
	"github.com/staybook/service-booking/pkg/domain"
	"gorm.io/gorm"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName    string    `gorm:"type:varchar(100);not null"`
	LastName     string    `gorm:"type:varchar(100);not null"`
	Email        string    `gorm:"type:varchar(255);not null"`
	PhoneNumber  string    `gorm:"type:varchar(20);not null"`
	Role         string    `gorm:"type:varchar(10);not null;index"`
	Bio          string    `gorm:"type:text"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null"`
}

func (UserModel) TableName() string { return "users" }

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, translateError(err, "find user by ID")
	}
	return toUserDomain(&model)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("lower(email) = ?", strings.ToLower(email)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", email)
		}
		return nil, translateError(err, "find user by email")
	}
	return toUserDomain(&model)
}

func (r *GormUserRepository) List(ctx context.Context, role *userDomain.Role, page, limit int) ([]*userDomain.User, int64, error) {
	scope := r.db
	if role != nil {
		scope = scope.Where("role = ?", string(*role))
	}

	var total int64
	if err := scope.WithContext(ctx).Model(&UserModel{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count users")
	}

	var models []UserModel
	if err := scope.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, translateError(err, "list users")
	}

	users := make([]*userDomain.User, 0, len(models))
	for i := range models {
		u, err := toUserDomain(&models[i])
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, nil
}

func (r *GormUserRepository) Save(ctx context.Context, u *userDomain.User) error {
	if err := r.db.WithContext(ctx).Create(toUserModel(u)).Error; err != nil {
		return translateError(err, "save user")
	}
	return nil
}

// Update persists profile fields. Role and email are immutable and never written.
func (r *GormUserRepository) Update(ctx context.Context, u *userDomain.User) error {
	result := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", u.ID()).
		Updates(map[string]interface{}{
			"first_name":   u.FirstName(),
			"last_name":    u.LastName(),
			"phone_number": u.PhoneNumber(),
			"bio":          u.Bio(),
			"updated_at":   u.UpdatedAt(),
		})
	if result.Error != nil {
		return translateError(result.Error, "update user")
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("User", u.ID().String())
	}
	return nil
}

func toUserModel(u *userDomain.User) *UserModel {
	return &UserModel{
		ID:           u.ID(),
		FirstName:    u.FirstName(),
		LastName:     u.LastName(),
		Email:        u.Email(),
		PhoneNumber:  u.PhoneNumber(),
		Role:         string(u.Role()),
		Bio:          u.Bio(),
		PasswordHash: u.PasswordHash(),
		CreatedAt:    u.CreatedAt(),
		UpdatedAt:    u.UpdatedAt(),
	}
}

func toUserDomain(m *UserModel) (*userDomain.User, error) {
	role, err := userDomain.ParseRole(m.Role)
	if err != nil {
		return nil, err
	}
	return userDomain.Reconstruct(
		m.ID,
		m.FirstName,
		m.LastName,
		m.Email,
		m.PhoneNumber,
		role,
		m.Bio,
		m.PasswordHash,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
