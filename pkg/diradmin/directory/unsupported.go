package directory

import (
	"context"

	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// Permission names a grant that may be attached to a group
type Permission struct {
	Name string `json:"name"`
}

// IsAdmin always reports false: administrative rights are carried by API tokens
func (s *Service) IsAdmin(ctx context.Context, userID string) bool {
	return false
}

// ExecutePlugins is not implemented
func (s *Service) ExecutePlugins(ctx context.Context) error {
	return notImplemented("ExecutePlugins")
}

// AddPermissionForGroup is not implemented
func (s *Service) AddPermissionForGroup(ctx context.Context, groupName, permission string) error {
	return notImplemented("AddPermissionForGroup")
}

// DeletePermissionForGroup is not implemented
func (s *Service) DeletePermissionForGroup(ctx context.Context, groupName, permission string) error {
	return notImplemented("DeletePermissionForGroup")
}

// PermissionsToAddForGroup is not implemented
func (s *Service) PermissionsToAddForGroup(ctx context.Context, groupName string) ([]Permission, error) {
	return nil, notImplemented("PermissionsToAddForGroup")
}

// GroupAdmins lists the groups administering a group. Not implemented.
func (s *Service) GroupAdmins(ctx context.Context, groupID uint) ([]models.Group, error) {
	return nil, notImplemented("GroupAdmins")
}

// GroupsExceptAdminGroups is not implemented
func (s *Service) GroupsExceptAdminGroups(ctx context.Context) ([]models.Group, error) {
	return nil, notImplemented("GroupsExceptAdminGroups")
}

// GroupWithPropertiesForUser is not implemented
func (s *Service) GroupWithPropertiesForUser(ctx context.Context, userID, groupName string) (*models.Group, error) {
	return nil, notImplemented("GroupWithPropertiesForUser")
}

func notImplemented(op string) error {
	return newError(ErrNotImplemented, "%s is not yet implemented", op)
}
