package directory

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// FindGroupsByUserID returns the groups the user is a member of, with properties
func (s *Service) FindGroupsByUserID(ctx context.Context, userID string) ([]models.Group, error) {
	id := models.NormalizeUserID(userID)

	groups := []models.Group{}
	err := s.transaction(ctx, "find groups by user", func(tx *gorm.DB) error {
		var memberships []models.GroupUser
		if err := tx.Where("user_id = ?", id).Find(&memberships).Error; err != nil {
			return dataError(err, "find memberships of "+id)
		}
		if len(memberships) == 0 {
			return nil
		}

		groupIDs := make([]uint, len(memberships))
		for i, m := range memberships {
			groupIDs[i] = m.GroupID
		}

		if err := tx.Where("id IN ?", groupIDs).Order("id").Find(&groups).Error; err != nil {
			return dataError(err, "find groups")
		}
		return attachProps(tx, groups)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("found groups by user", zap.String("user_id", id), zap.Int("count", len(groups)))
	return groups, nil
}

// FindGroupByID returns the group with its properties, or nil when no group has that id
func (s *Service) FindGroupByID(ctx context.Context, id uint) (*models.Group, error) {
	var group *models.Group
	err := s.transaction(ctx, "find group", func(tx *gorm.DB) error {
		var err error
		group, err = findGroup(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// FindGroups returns all groups ordered by id
func (s *Service) FindGroups(ctx context.Context) ([]models.Group, error) {
	groups := []models.Group{}
	err := s.transaction(ctx, "find groups", func(tx *gorm.DB) error {
		if err := tx.Order("id").Find(&groups).Error; err != nil {
			return dataError(err, "find groups")
		}
		return attachProps(tx, groups)
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// FindGroupsBySearchKey matches key case-insensitively against group names and paths
func (s *Service) FindGroupsBySearchKey(ctx context.Context, key string) ([]models.Group, error) {
	if err := rejectWildcard(key); err != nil {
		return nil, err
	}
	pattern := "%" + strings.ToUpper(strings.TrimSpace(key)) + "%"

	groups := []models.Group{}
	err := s.transaction(ctx, "search groups", func(tx *gorm.DB) error {
		if err := tx.Where("UPPER(name) LIKE ? OR UPPER(node_path) LIKE ?", pattern, pattern).
			Order("id").Find(&groups).Error; err != nil {
			return dataError(err, "search groups")
		}
		return attachProps(tx, groups)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("searched groups", zap.String("key", key), zap.Int("count", len(groups)))
	return groups, nil
}

// AddGroup creates a group with its properties and returns the new id.
// group.ID is set on success.
func (s *Service) AddGroup(ctx context.Context, group *models.Group) (uint, error) {
	if group == nil {
		return 0, newError(ErrValidation, "group is required")
	}
	if err := s.validateStruct("group", group); err != nil {
		return 0, err
	}

	var id uint
	err := s.transaction(ctx, "add group", func(tx *gorm.DB) error {
		var err error
		id, err = addGroup(tx, group)
		return err
	})
	if err != nil {
		return 0, err
	}

	group.ID = id
	s.log.Info("added group",
		zap.Uint("group_id", id),
		zap.String("name", group.Name),
		zap.String("node_path", group.NodePath),
		zap.Int("props", len(group.Props)),
	)
	return id, nil
}

// ModifyGroup replaces the group's properties and updates its name,
// description and node path. Domain and repository are left as stored.
func (s *Service) ModifyGroup(ctx context.Context, group *models.Group) error {
	if group == nil {
		return newError(ErrValidation, "group is required")
	}
	if err := s.validateStruct("group", group); err != nil {
		return err
	}

	err := s.transaction(ctx, "modify group", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Group{}).Where("id = ?", group.ID).Count(&count).Error; err != nil {
			return dataError(err, "find group")
		}
		if count == 0 {
			return newError(ErrGroupNotFound, "group %d does not exist", group.ID)
		}

		if err := replaceProps(tx, group.ID, group.Props); err != nil {
			return err
		}

		err := tx.Model(&models.Group{}).Where("id = ?", group.ID).Updates(map[string]interface{}{
			"name":        group.Name,
			"description": group.Description,
			"node_path":   group.NodePath,
		}).Error
		return dataError(err, "update group")
	})
	if err != nil {
		return err
	}

	s.log.Info("modified group", zap.Uint("group_id", group.ID), zap.String("name", group.Name))
	return nil
}

// DeleteGroupByID deletes a group and its properties. Groups with members
// cannot be deleted; deleting an unknown id is a no-op.
func (s *Service) DeleteGroupByID(ctx context.Context, id uint) error {
	err := s.transaction(ctx, "delete group", func(tx *gorm.DB) error {
		var members int64
		if err := tx.Model(&models.GroupUser{}).Where("group_id = ?", id).Count(&members).Error; err != nil {
			return dataError(err, "count group members")
		}
		if members > 0 {
			return newError(ErrGroupHasMembers,
				"a group with members cannot be deleted: %d member(s) remaining", members)
		}

		if err := deleteProps(tx, id); err != nil {
			return err
		}
		return dataError(tx.Delete(&models.Group{}, id).Error, "delete group")
	})
	if err != nil {
		return err
	}

	s.log.Info("deleted group", zap.Uint("group_id", id))
	return nil
}

func findGroup(tx *gorm.DB, id uint) (*models.Group, error) {
	var g models.Group
	err := tx.First(&g, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dataError(err, "find group")
	}

	groups := []models.Group{g}
	if err := attachProps(tx, groups); err != nil {
		return nil, err
	}
	return &groups[0], nil
}

func addGroup(tx *gorm.DB, group *models.Group) (uint, error) {
	row := models.Group{
		Name:        group.Name,
		Description: group.Description,
		NodePath:    group.NodePath,
		Domain:      group.Domain,
		Repository:  group.Repository,
	}
	if err := tx.Create(&row).Error; err != nil {
		return 0, dataError(err, "insert group")
	}
	if err := replaceProps(tx, row.ID, group.Props); err != nil {
		return 0, err
	}
	return row.ID, nil
}

// attachProps loads the properties of all groups with a single query,
// keeping insertion order
func attachProps(tx *gorm.DB, groups []models.Group) error {
	if len(groups) == 0 {
		return nil
	}

	ids := make([]uint, len(groups))
	index := make(map[uint]int, len(groups))
	for i := range groups {
		ids[i] = groups[i].ID
		index[groups[i].ID] = i
		groups[i].Props = []models.Prop{}
	}

	var props []models.Prop
	if err := tx.Where("type = ? AND owner_id IN ?", models.PropTypeGroup, ids).
		Order("id").Find(&props).Error; err != nil {
		return dataError(err, "find group props")
	}

	for _, p := range props {
		i := index[p.OwnerID]
		groups[i].Props = append(groups[i].Props, p)
	}
	return nil
}

// replaceProps deletes all properties of the group and inserts props.
// A key given twice keeps its last value at its first position.
func replaceProps(tx *gorm.DB, groupID uint, props []models.Prop) error {
	if err := deleteProps(tx, groupID); err != nil {
		return err
	}
	if len(props) == 0 {
		return nil
	}

	rows := make([]models.Prop, 0, len(props))
	position := make(map[string]int, len(props))
	for _, p := range props {
		if i, ok := position[p.Key]; ok {
			rows[i].Value = p.Value
			continue
		}
		position[p.Key] = len(rows)
		rows = append(rows, models.Prop{
			Type:    models.PropTypeGroup,
			OwnerID: groupID,
			Key:     p.Key,
			Value:   p.Value,
		})
	}

	return dataError(tx.Create(&rows).Error, "insert group props")
}

func deleteProps(tx *gorm.DB, groupID uint) error {
	err := tx.Where("type = ? AND owner_id = ?", models.PropTypeGroup, groupID).Delete(&models.Prop{}).Error
	return dataError(err, "delete group props")
}
