package models

import (
	"time"
)

// ExclusiveLockID is the primary key of the only row the exclusive_locks table may hold
const ExclusiveLockID = 1

// ExclusiveLock records the user holding exclusive write access to the directory
type ExclusiveLock struct {
	ID        uint      `gorm:"primarykey;autoIncrement:false" json:"-"`
	UserID    string    `gorm:"type:varchar(64);not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
