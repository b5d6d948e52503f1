package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей платформы.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidUserRole проверяет, что роль входит в допустимый набор.
func ValidUserRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// User описывает зарегистрированного пользователя платформы.
type User struct {
	ID                       uuid.UUID  `db:"id" json:"id"`
	Name                     string     `db:"name" json:"name"`
	Email                    string     `db:"email" json:"email"`
	Phone                    *string    `db:"phone" json:"phone,omitempty"`
	PasswordHash             string     `db:"password_hash" json:"-"`
	Role                     string     `db:"role" json:"role"`
	IsVerified               bool       `db:"is_verified" json:"isVerified"`
	VerificationToken        *string    `db:"verification_token" json:"-"`
	VerificationTokenExpires *time.Time `db:"verification_token_expires" json:"-"`
	LocationArea             string     `db:"location_area" json:"-"`
	LocationCity             string     `db:"location_city" json:"-"`
	LastLoginAt              *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt                time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt                time.Time  `db:"updated_at" json:"updatedAt"`
}

// Location группирует район и город, как их присылает клиент.
type Location struct {
	Area string `json:"area"`
	City string `json:"city"`
}
