package models

import (
	"time"
)

// MembershipType represents a user's role within a group
type MembershipType string

const (
	MembershipAdmin  MembershipType = "ADMIN"
	MembershipMember MembershipType = "MEMBER"
)

// Valid reports whether t is a known membership type
func (t MembershipType) Valid() bool {
	switch t {
	case MembershipAdmin, MembershipMember:
		return true
	}
	return false
}

// GroupUser associates a user identity with a group.
// UserID is not a foreign key: the user row may not exist locally.
type GroupUser struct {
	GroupID   uint           `gorm:"primaryKey;autoIncrement:false" json:"group_id"`
	UserID    string         `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	Type      MembershipType `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"type"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
