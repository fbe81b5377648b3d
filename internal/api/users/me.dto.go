package users

import (
	"time"

	"reflectio/internal/domain/entitlement"
	"reflectio/internal/service/permission"
)

type MeResponse struct {
	User        UserDTO                     `json:"user"`
	Premium     permission.PremiumStatus    `json:"premium"`
	Permissions entitlement.UserPermissions `json:"permissions"`
}

type UserDTO struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	AuthProvider string    `json:"auth_provider"`
	Level        int       `json:"level"`
	CreatedAt    time.Time `json:"created_at"`
}
