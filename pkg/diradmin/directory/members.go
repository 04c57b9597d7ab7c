package directory

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mikepea/diradmin/pkg/diradmin/lookup"
	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// Member is a group membership together with the member's profile.
// Profile fields are empty when no local user record exists.
type Member struct {
	GroupID   uint                  `json:"group_id"`
	UserID    string                `json:"user_id"`
	Type      models.MembershipType `json:"type"`
	FirstName string                `json:"first_name"`
	LastName  string                `json:"last_name"`
	Email     string                `json:"email"`
	Telephone string                `json:"telephone"`
}

// AddGroupUser adds the user to the group, or changes the membership type
// when the user is already a member. Users unknown locally are resolved
// through the lookup and stored under their canonical id.
func (s *Service) AddGroupUser(ctx context.Context, groupID uint, userID string, typ models.MembershipType) error {
	if !typ.Valid() {
		return newError(ErrValidation, "membership type '%s' is invalid", typ)
	}
	id := models.NormalizeUserID(userID)
	if id == "" {
		return newError(ErrValidation, "user id is required")
	}

	var canonical string
	err := s.transaction(ctx, "add group user", func(tx *gorm.DB) error {
		var err error
		canonical, err = s.addGroupUser(ctx, tx, groupID, id, typ)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("added group user",
		zap.Uint("group_id", groupID),
		zap.String("user_id", canonical),
		zap.String("type", string(typ)),
	)
	return nil
}

// FindGroupUsersByGroupID returns the group's members ordered by user id
func (s *Service) FindGroupUsersByGroupID(ctx context.Context, groupID uint) ([]Member, error) {
	members := []Member{}
	err := s.transaction(ctx, "find group users", func(tx *gorm.DB) error {
		var memberships []models.GroupUser
		if err := tx.Where("group_id = ?", groupID).Order("user_id").Find(&memberships).Error; err != nil {
			return dataError(err, "find group users")
		}
		if len(memberships) == 0 {
			return nil
		}

		ids := make([]string, len(memberships))
		for i, m := range memberships {
			ids[i] = m.UserID
		}
		var users []models.User
		if err := tx.Where("id IN ?", ids).Find(&users).Error; err != nil {
			return dataError(err, "find member profiles")
		}
		profiles := make(map[string]models.User, len(users))
		for _, u := range users {
			profiles[u.ID] = u
		}

		for _, m := range memberships {
			u := profiles[m.UserID]
			members = append(members, Member{
				GroupID:   m.GroupID,
				UserID:    m.UserID,
				Type:      m.Type,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Email:     u.Email,
				Telephone: u.Telephone,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// DeleteGroupUser removes the membership. Removing a non-member is a no-op.
func (s *Service) DeleteGroupUser(ctx context.Context, groupID uint, userID string) error {
	id := models.NormalizeUserID(userID)

	var removed int64
	err := s.transaction(ctx, "delete group user", func(tx *gorm.DB) error {
		res := tx.Where("group_id = ? AND user_id = ?", groupID, id).Delete(&models.GroupUser{})
		removed = res.RowsAffected
		return dataError(res.Error, "delete group user")
	})
	if err != nil {
		return err
	}

	s.log.Info("deleted group user",
		zap.Uint("group_id", groupID),
		zap.String("user_id", id),
		zap.Int64("removed", removed),
	)
	return nil
}

func (s *Service) addGroupUser(ctx context.Context, tx *gorm.DB, groupID uint, id string, typ models.MembershipType) (string, error) {
	var groups int64
	if err := tx.Model(&models.Group{}).Where("id = ?", groupID).Count(&groups).Error; err != nil {
		return "", dataError(err, "find group")
	}
	if groups == 0 {
		return "", newError(ErrGroupNotFound, "group %d does not exist", groupID)
	}

	canonical, err := s.ensureUser(ctx, tx, id)
	if err != nil {
		return "", err
	}

	var existing models.GroupUser
	err = tx.Where("group_id = ? AND user_id = ?", groupID, canonical).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = tx.Create(&models.GroupUser{GroupID: groupID, UserID: canonical, Type: typ}).Error
		return canonical, dataError(err, "insert group user")
	case err != nil:
		return "", dataError(err, "find group user")
	case existing.Type == typ:
		return canonical, nil
	default:
		err = tx.Model(&models.GroupUser{}).
			Where("group_id = ? AND user_id = ?", groupID, canonical).
			Update("type", typ).Error
		return canonical, dataError(err, "update group user")
	}
}

// ensureUser returns the id under which the user is stored locally,
// fetching and saving the profile from the lookup when needed
func (s *Service) ensureUser(ctx context.Context, tx *gorm.DB, id string) (string, error) {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return "", dataError(err, "find user")
	}
	if count > 0 {
		return id, nil
	}

	u, err := s.lookup.LookupUser(ctx, id)
	if errors.Is(err, lookup.ErrUserNotFound) {
		return "", newError(ErrUnknownUser, "user '%s' is unknown", id)
	}
	if err != nil {
		return "", &Error{Kind: ErrDataAccess, Msg: "lookup of user '" + id + "' failed", cause: err}
	}

	profile := *u
	profile.ID = models.NormalizeUserID(profile.ID)
	if profile.ID == "" {
		profile.ID = id
	}
	if err := saveUser(tx, profile); err != nil {
		return "", err
	}

	s.log.Debug("resolved user through lookup", zap.String("requested", id), zap.String("user_id", profile.ID))
	return profile.ID, nil
}
