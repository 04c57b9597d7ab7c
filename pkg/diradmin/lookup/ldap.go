package lookup

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// LDAPConfig describes how to find users in an LDAP directory
type LDAPConfig struct {
	URL          string        `mapstructure:"url"`
	BindDN       string        `mapstructure:"bind_dn"`
	BindPassword string        `mapstructure:"bind_password"`
	BaseDN       string        `mapstructure:"base_dn"`
	Filter       string        `mapstructure:"filter"` // fmt pattern, %s receives the escaped id
	Timeout      time.Duration `mapstructure:"timeout"`

	AttrID        string `mapstructure:"attr_id"`
	AttrFirstName string `mapstructure:"attr_first_name"`
	AttrLastName  string `mapstructure:"attr_last_name"`
	AttrEmail     string `mapstructure:"attr_email"`
	AttrTelephone string `mapstructure:"attr_telephone"`
}

func (c LDAPConfig) withDefaults() LDAPConfig {
	if c.Filter == "" {
		c.Filter = "(uid=%s)"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.AttrID == "" {
		c.AttrID = "uid"
	}
	if c.AttrFirstName == "" {
		c.AttrFirstName = "givenName"
	}
	if c.AttrLastName == "" {
		c.AttrLastName = "sn"
	}
	if c.AttrEmail == "" {
		c.AttrEmail = "mail"
	}
	if c.AttrTelephone == "" {
		c.AttrTelephone = "telephoneNumber"
	}
	return c
}

// LDAP resolves users with a subtree search below BaseDN.
// A connection is opened per lookup; lookups only happen on first reference of a user.
type LDAP struct {
	cfg LDAPConfig
	log *zap.Logger
}

// NewLDAP creates an LDAP lookup
func NewLDAP(cfg LDAPConfig, logger *zap.Logger) (*LDAP, error) {
	if cfg.URL == "" {
		return nil, errors.New("ldap url is required")
	}
	if cfg.BaseDN == "" {
		return nil, errors.New("ldap base dn is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LDAP{cfg: cfg.withDefaults(), log: logger.Named("ldap")}, nil
}

// LookupUser implements Lookup
func (l *LDAP) LookupUser(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := ldap.DialURL(l.cfg.URL, ldap.DialWithDialer(&net.Dialer{Timeout: l.cfg.Timeout}))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", l.cfg.URL)
	}
	defer conn.Close()
	conn.SetTimeout(l.cfg.Timeout)

	if l.cfg.BindDN != "" {
		if err := conn.Bind(l.cfg.BindDN, l.cfg.BindPassword); err != nil {
			return nil, errors.Wrap(err, "ldap bind failed")
		}
	}

	res, err := conn.Search(l.searchRequest(id))
	entry, err := l.firstEntry(id, res, err)
	if err != nil {
		return nil, err
	}

	u := l.entryToUser(entry, id)
	l.log.Debug("resolved user", zap.String("id", id), zap.String("canonical_id", u.ID))
	return &u, nil
}

// firstEntry picks the entry a search resolved to. The request is limited to
// two entries, so more matches end in SizeLimitExceeded with partial results.
func (l *LDAP) firstEntry(id string, res *ldap.SearchResult, err error) (*ldap.Entry, error) {
	ambiguous := false
	if err != nil {
		switch {
		case ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject):
			return nil, ErrUserNotFound
		case ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) && res != nil && len(res.Entries) > 0:
			ambiguous = true
		default:
			return nil, errors.Wrapf(err, "ldap search for %s failed", id)
		}
	}

	if res == nil || len(res.Entries) == 0 {
		return nil, ErrUserNotFound
	}
	if ambiguous || len(res.Entries) > 1 {
		l.log.Warn("ambiguous ldap lookup, using first entry",
			zap.String("id", id),
			zap.Int("entries", len(res.Entries)),
		)
	}
	return res.Entries[0], nil
}

func (l *LDAP) searchRequest(id string) *ldap.SearchRequest {
	return ldap.NewSearchRequest(
		l.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		2,
		int(l.cfg.Timeout.Seconds()),
		false,
		fmt.Sprintf(l.cfg.Filter, ldap.EscapeFilter(id)),
		[]string{l.cfg.AttrID, l.cfg.AttrFirstName, l.cfg.AttrLastName, l.cfg.AttrEmail, l.cfg.AttrTelephone},
		nil,
	)
}

// entryToUser maps an entry to a user; the id attribute is canonical, the
// requested id is used when the entry lacks one.
func (l *LDAP) entryToUser(e *ldap.Entry, requested string) models.User {
	id := e.GetAttributeValue(l.cfg.AttrID)
	if id == "" {
		id = requested
	}
	return models.User{
		ID:        models.NormalizeUserID(id),
		FirstName: e.GetAttributeValue(l.cfg.AttrFirstName),
		LastName:  e.GetAttributeValue(l.cfg.AttrLastName),
		Email:     e.GetAttributeValue(l.cfg.AttrEmail),
		Telephone: e.GetAttributeValue(l.cfg.AttrTelephone),
	}
}
