package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RolePro    Role = "pro"
	RoleAdmin  Role = "admin"
)

// Profile is the public identity of a user. One per user, keyed by the user id.
type Profile struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email       *string   `gorm:"column:email" json:"email"`
	FullName    *string   `gorm:"column:full_name" json:"full_name"`
	Role        Role      `gorm:"column:role;type:varchar(10);not null;default:'buyer'" json:"role"`
	AvatarURL   *string   `gorm:"column:avatar_url" json:"avatar_url"`
	Bio         *string   `gorm:"column:bio" json:"bio"`
	ServiceArea *string   `gorm:"column:service_area" json:"service_area"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
