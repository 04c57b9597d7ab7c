package models

import (
	"time"
)

// Group represents an administrative group
// Props are stored in the props table and loaded explicitly, never through gorm associations
type Group struct {
	ID          uint      `gorm:"primarykey" json:"id" yaml:"id"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
	Name        string    `gorm:"not null" json:"name" yaml:"name" validate:"required,max=255"`
	Description string    `json:"description" yaml:"description" validate:"max=1024"`
	NodePath    string    `gorm:"not null;index" json:"node_path" yaml:"node_path" validate:"required,max=1024"`
	Domain      string    `json:"domain" yaml:"domain" validate:"max=255"`         // Domain identifier in the build system
	Repository  string    `json:"repository" yaml:"repository" validate:"max=255"` // Artifact repository identifier

	Props []Prop `gorm:"-" json:"props" yaml:"props" validate:"dive"`
}
