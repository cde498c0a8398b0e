package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Fixed role ids seeded by the initial migration data.
const (
	RoleAdmin    int64 = 1
	RoleStaff    int64 = 2
	RoleCustomer int64 = 3
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

const (
	AddressHome  = "home"
	AddressWork  = "work"
	AddressOther = "other"
)

type Role struct {
	ID          int64           `json:"id"`
	RoleName    string          `json:"role_name"`
	Description *string         `json:"description,omitempty"`
	Permissions json.RawMessage `json:"permissions"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

type User struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Phone         *string    `json:"phone,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Gender        *string    `json:"gender,omitempty"`
	AvatarURL     *string    `json:"avatar_url,omitempty"`
	RoleID        int64      `json:"role_id"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	PhoneVerified bool       `json:"phone_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	LoginCount    int        `json:"login_count"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type Address struct {
	ID            int64               `json:"id"`
	UserID        int64               `json:"user_id"`
	AddressType   string              `json:"address_type"`
	RecipientName string              `json:"recipient_name"`
	Phone         *string             `json:"phone,omitempty"`
	AddressLine1  string              `json:"address_line1"`
	AddressLine2  *string             `json:"address_line2,omitempty"`
	Ward          *string             `json:"ward,omitempty"`
	District      *string             `json:"district,omitempty"`
	City          string              `json:"city"`
	PostalCode    *string             `json:"postal_code,omitempty"`
	Country       string              `json:"country"`
	IsDefault     bool                `json:"is_default"`
	Latitude      decimal.NullDecimal `json:"latitude"`
	Longitude     decimal.NullDecimal `json:"longitude"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Session rows hold the SHA-256 of the session secret, never the secret.
type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	TokenHash    string    `json:"-"`
	IPAddress    *string   `json:"ip_address,omitempty"`
	UserAgent    *string   `json:"user_agent,omitempty"`
	IsActive     bool      `json:"is_active"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	TokenHash  string     `json:"-"`
	DeviceInfo *string    `json:"device_info,omitempty"`
	IPAddress  *string    `json:"ip_address,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	IsRevoked  bool       `json:"is_revoked"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TokenKind selects one of the single-use token tables.
type TokenKind string

const (
	TokenEmailVerification TokenKind = "email_verification_tokens"
	TokenPasswordReset     TokenKind = "password_reset_tokens"
)

type OneTimeToken struct {
	ID        int64      `json:"id"`
	Kind      TokenKind  `json:"kind"`
	UserID    int64      `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
