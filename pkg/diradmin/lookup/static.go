package lookup

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// Static resolves users from an in-memory table
type Static struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// staticEntry is one record of a static lookup file. Alias lets several
// requested ids resolve to the same canonical user.
type staticEntry struct {
	models.User `yaml:",inline"`
	Aliases     []string `yaml:"aliases"`
}

// NewStatic creates a static lookup holding the given users under their own ids
func NewStatic(users ...models.User) *Static {
	s := &Static{users: make(map[string]models.User, len(users))}
	for _, u := range users {
		s.Add(u.ID, u)
	}
	return s
}

// LoadStaticFile reads a YAML list of users
func LoadStaticFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read lookup file %s", path)
	}

	var entries []staticEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "failed to parse lookup file %s", path)
	}

	s := NewStatic()
	for _, e := range entries {
		u := e.User
		u.ID = models.NormalizeUserID(u.ID)
		s.Add(u.ID, u)
		for _, alias := range e.Aliases {
			s.Add(alias, u)
		}
	}
	return s, nil
}

// Add registers user under the requested id
func (s *Static) Add(id string, user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[models.NormalizeUserID(id)] = user
}

// LookupUser implements Lookup
func (s *Static) LookupUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[models.NormalizeUserID(id)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
