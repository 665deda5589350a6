package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const UserTypeAdmin = "admin"

type FCMToken struct {
	ID        uuid.UUID
	Token     string
	UserType  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

const RoleAdmin = "admin"

// AdminClaims are carried by the admin panel's session token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
