package directory

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// MinSearchKeyLength is the shortest key FindUsersBySearchKey accepts
const MinSearchKeyLength = 3

// FindUsers returns all locally known users ordered by id
func (s *Service) FindUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.transaction(ctx, "find users", func(tx *gorm.DB) error {
		return dataError(tx.Order("id").Find(&users).Error, "find users")
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// FindUsersBySearchKey returns users whose id starts with key or whose first
// or last name contains it, ignoring case
func (s *Service) FindUsersBySearchKey(ctx context.Context, key string) ([]models.User, error) {
	key = strings.TrimSpace(key)
	if utf8.RuneCountInString(key) < MinSearchKeyLength {
		return nil, newError(ErrSearchKeyTooShort,
			"search key must have at least %d characters", MinSearchKeyLength)
	}
	if err := rejectWildcard(key); err != nil {
		return nil, err
	}
	upper := strings.ToUpper(key)

	users := []models.User{}
	err := s.transaction(ctx, "search users", func(tx *gorm.DB) error {
		err := tx.Where("UPPER(id) LIKE ? OR UPPER(first_name) LIKE ? OR UPPER(last_name) LIKE ?",
			upper+"%", "%"+upper+"%", "%"+upper+"%").
			Order("id").Find(&users).Error
		return dataError(err, "search users")
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("searched users", zap.String("key", key), zap.Int("count", len(users)))
	return users, nil
}

// AddUser creates the user, or overwrites the profile of an existing one
func (s *Service) AddUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return newError(ErrValidation, "user is required")
	}
	u := *user
	u.ID = models.NormalizeUserID(u.ID)
	if err := s.validateStruct("user", &u); err != nil {
		return err
	}

	err := s.transaction(ctx, "add user", func(tx *gorm.DB) error {
		return saveUser(tx, u)
	})
	if err != nil {
		return err
	}

	s.log.Info("added user", zap.String("user_id", u.ID))
	return nil
}

func saveUser(tx *gorm.DB, u models.User) error {
	var existing models.User
	err := tx.Where("id = ?", u.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dataError(tx.Create(&u).Error, "insert user")
	}
	if err != nil {
		return dataError(err, "find user")
	}

	err = tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"telephone":  u.Telephone,
	}).Error
	return dataError(err, "update user")
}
