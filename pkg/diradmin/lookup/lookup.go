// Package lookup resolves external identities to directory users.
package lookup

import (
	"context"
	"errors"

	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// ErrUserNotFound is returned when the directory has no entry for an identity
var ErrUserNotFound = errors.New("user not found in directory")

// Lookup resolves a normalized user id to a user profile.
// The returned user's ID is canonical and may differ from the requested id.
type Lookup interface {
	LookupUser(ctx context.Context, id string) (*models.User, error)
}
