package user

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/staybook/service-booking/pkg/domain"
)

const maxNameLength = 100

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

// User is the aggregate root for an account.
type User struct {
	id           uuid.UUID
	firstName    string
	lastName     string
	email        string
	phoneNumber  string
	role         Role
	bio          string
	passwordHash string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a new User with validated contact details.
func NewUser(firstName, lastName, email, phoneNumber string, role Role, bio, passwordHash string) (*User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validateName("first name", firstName); err != nil {
		return nil, err
	}
	if err := validateName("last name", lastName); err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewValidationError("a valid email is required")
	}
	if !phonePattern.MatchString(phoneNumber) {
		return nil, domain.NewValidationError("phone number must be 9 to 15 digits with an optional leading +")
	}
	if !role.IsValid() {
		return nil, domain.NewValidationError("invalid role: " + string(role))
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError("password is required")
	}

	now := time.Now().UTC()
	return &User{
		id:           uuid.New(),
		firstName:    firstName,
		lastName:     lastName,
		email:        email,
		phoneNumber:  phoneNumber,
		role:         role,
		bio:          bio,
		passwordHash: passwordHash,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a User from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	firstName, lastName, email, phoneNumber string,
	role Role,
	bio, passwordHash string,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:           id,
		firstName:    firstName,
		lastName:     lastName,
		email:        email,
		phoneNumber:  phoneNumber,
		role:         role,
		bio:          bio,
		passwordHash: passwordHash,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func validateName(field, value string) error {
	if value == "" {
		return domain.NewValidationError(field + " is required")
	}
	if utf8.RuneCountInString(value) > maxNameLength {
		return domain.NewValidationError(field + " must be at most 100 characters")
	}
	return nil
}

func (u *User) ID() uuid.UUID         { return u.id }
func (u *User) FirstName() string     { return u.firstName }
func (u *User) LastName() string      { return u.lastName }
func (u *User) Email() string         { return u.email }
func (u *User) PhoneNumber() string   { return u.phoneNumber }
func (u *User) Role() Role            { return u.role }
func (u *User) Bio() string           { return u.bio }
func (u *User) PasswordHash() string  { return u.passwordHash }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }

// FullName returns "first last".
func (u *User) FullName() string {
	return u.firstName + " " + u.lastName
}

// UpdateProfile applies partial updates. Role and email are not editable.
func (u *User) UpdateProfile(firstName, lastName, phoneNumber, bio *string) error {
	if firstName != nil {
		v := strings.TrimSpace(*firstName)
		if err := validateName("first name", v); err != nil {
			return err
		}
		u.firstName = v
	}
	if lastName != nil {
		v := strings.TrimSpace(*lastName)
		if err := validateName("last name", v); err != nil {
			return err
		}
		u.lastName = v
	}
	if phoneNumber != nil {
		if !phonePattern.MatchString(*phoneNumber) {
			return domain.NewValidationError("phone number must be 9 to 15 digits with an optional leading +")
		}
		u.phoneNumber = *phoneNumber
	}
	if bio != nil {
		u.bio = *bio
	}
	u.updatedAt = time.Now().UTC()
	return nil
}
