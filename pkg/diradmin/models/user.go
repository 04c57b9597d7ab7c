package models

import (
	"strings"
	"time"
)

// User is a locally known directory identity
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id" yaml:"id" validate:"required,max=64"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
	FirstName string    `json:"first_name" yaml:"first_name" validate:"max=255"`
	LastName  string    `json:"last_name" yaml:"last_name" validate:"max=255"`
	Email     string    `json:"email" yaml:"email" validate:"omitempty,email,max=255"`
	Telephone string    `json:"telephone" yaml:"telephone" validate:"max=64"`
}

// NormalizeUserID returns the canonical form of a user key
func NormalizeUserID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
