package directory

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// ExclusiveUser describes the holder of the exclusive lock
type ExclusiveUser struct {
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Telephone string    `json:"telephone"`
	Since     time.Time `json:"since"`
}

// IsExclusive reports whether some user holds the exclusive lock
func (s *Service) IsExclusive(ctx context.Context) (bool, error) {
	var locked bool
	err := s.transaction(ctx, "check exclusive lock", func(tx *gorm.DB) error {
		lock, err := findLock(tx)
		locked = lock != nil
		return err
	})
	if err != nil {
		return false, err
	}
	return locked, nil
}

// FindExclusiveUser returns the lock holder, or nil when the lock is free
func (s *Service) FindExclusiveUser(ctx context.Context) (*ExclusiveUser, error) {
	var holder *ExclusiveUser
	err := s.transaction(ctx, "find exclusive user", func(tx *gorm.DB) error {
		lock, err := findLock(tx)
		if err != nil || lock == nil {
			return err
		}

		holder = &ExclusiveUser{UserID: lock.UserID, Since: lock.CreatedAt}

		var u models.User
		err = tx.Where("id = ?", lock.UserID).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return dataError(err, "find exclusive user profile")
		}
		holder.FirstName = u.FirstName
		holder.LastName = u.LastName
		holder.Email = u.Email
		holder.Telephone = u.Telephone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return holder, nil
}

// SetExclusiveUser gives userID exclusive write access. It fails with
// ErrAlreadyLocked while any user holds the lock.
func (s *Service) SetExclusiveUser(ctx context.Context, userID string) error {
	id := models.NormalizeUserID(userID)
	if id == "" {
		return newError(ErrValidation, "user id is required")
	}

	err := s.transaction(ctx, "set exclusive user", func(tx *gorm.DB) error {
		lock, err := findLock(tx)
		if err != nil {
			return err
		}
		if lock != nil {
			return newError(ErrAlreadyLocked, "directory is already locked by '%s'", lock.UserID)
		}

		err = tx.Create(&models.ExclusiveLock{ID: models.ExclusiveLockID, UserID: id}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return newError(ErrAlreadyLocked, "directory was locked concurrently")
		}
		return dataError(err, "insert exclusive lock")
	})
	if err != nil {
		return err
	}

	s.log.Info("set exclusive user", zap.String("user_id", id))
	return nil
}

// ResetExclusiveUser releases the exclusive lock, whoever holds it
func (s *Service) ResetExclusiveUser(ctx context.Context) error {
	err := s.transaction(ctx, "reset exclusive user", func(tx *gorm.DB) error {
		return dataError(tx.Delete(&models.ExclusiveLock{}, models.ExclusiveLockID).Error, "delete exclusive lock")
	})
	if err != nil {
		return err
	}

	s.log.Info("reset exclusive user")
	return nil
}

func findLock(tx *gorm.DB) (*models.ExclusiveLock, error) {
	var lock models.ExclusiveLock
	err := tx.First(&lock, models.ExclusiveLockID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dataError(err, "find exclusive lock")
	}
	return &lock, nil
}
