package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)

// Roles lists every role a user may hold. There is no hierarchy between them.
var Roles = []string{RoleOwner, RoleAdmin, RoleStaff, RoleUser}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents an account that can authenticate against the API
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Fullname  string    `gorm:"type:varchar(255);not null" json:"fullname"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`            // Omit password hash from JSON
	Role      string    `gorm:"type:varchar(20);not null;index" json:"role"` // owner, admin, staff, user
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
