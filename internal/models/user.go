package models

import (
	"time"

	"gorm.io/gorm"
)

// UserAuth represents an ops or driver account
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type UserAuth struct {
	ID         string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username   string     `gorm:"unique;not null" json:"username"`
	Password   string     `gorm:"not null" json:"-"`
	Email      string     `gorm:"unique;not null" json:"email"`
	Name       string     `json:"name,omitempty"`
	Role       string     `gorm:"default:'ops'" json:"role"` // ops or driver
	DriverCode *string    `json:"driverCode,omitempty"`      // set for driver accounts
	Branch     string     `json:"branch,omitempty"`
	IsActive   bool       `gorm:"default:true" json:"isActive"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for UserAuth model
func (UserAuth) TableName() string {
	return "user_auths"
}
