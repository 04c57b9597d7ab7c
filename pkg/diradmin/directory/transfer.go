package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// Format selects the encoding of a transfer document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml; the empty string means json
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.Errorf("unsupported format %q", s)
}

// Data is the transfer document of ImportData and ExportData
type Data struct {
	Groups []DataGroup `json:"groups" yaml:"groups"`
	Users  []DataUser  `json:"users" yaml:"users"`
}

// DataGroup is a group with its properties and memberships
type DataGroup struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	NodePath    string       `json:"node_path" yaml:"node_path"`
	Domain      string       `json:"domain,omitempty" yaml:"domain,omitempty"`
	Repository  string       `json:"repository,omitempty" yaml:"repository,omitempty"`
	Props       []DataProp   `json:"props" yaml:"props"`
	Members     []DataMember `json:"members" yaml:"members"`
}

type DataProp struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

type DataMember struct {
	UserID string                `json:"user_id" yaml:"user_id"`
	Type   models.MembershipType `json:"type" yaml:"type"`
}

type DataUser struct {
	ID        string `json:"id" yaml:"id"`
	FirstName string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`
	Telephone string `json:"telephone,omitempty" yaml:"telephone,omitempty"`
}

// ImportResult counts what ImportData wrote
type ImportResult struct {
	Users   int `json:"users"`
	Groups  int `json:"groups"`
	Members int `json:"members"`
}

// ImportData loads a transfer document in one transaction. With
// forceDeleteTables, group properties, memberships and groups are purged
// first; users are never purged. Each user is written once, before any
// group, so members listed in the document need no lookup.
func (s *Service) ImportData(ctx context.Context, data *Data, forceDeleteTables bool) (*ImportResult, error) {
	if data == nil {
		return nil, newError(ErrValidation, "import data is required")
	}

	result := &ImportResult{}
	err := s.transaction(ctx, "import data", func(tx *gorm.DB) error {
		if forceDeleteTables {
			if err := purgeGroups(tx); err != nil {
				return err
			}
		}

		seen := make(map[string]bool, len(data.Users))
		for i, du := range data.Users {
			u := du.toModel()
			if seen[u.ID] {
				continue
			}
			if err := s.validateStruct(fmt.Sprintf("user #%d", i+1), &u); err != nil {
				return err
			}
			if err := saveUser(tx, u); err != nil {
				return err
			}
			seen[u.ID] = true
			result.Users++
		}

		for i, dg := range data.Groups {
			g := dg.toModel()
			if err := s.validateStruct(fmt.Sprintf("group #%d (%s)", i+1, g.Name), &g); err != nil {
				return err
			}
			id, err := addGroup(tx, &g)
			if err != nil {
				return err
			}
			result.Groups++

			for _, m := range dg.Members {
				typ := m.Type
				if typ == "" {
					typ = models.MembershipMember
				}
				if !typ.Valid() {
					return newError(ErrValidation, "group #%d (%s): membership type '%s' is invalid", i+1, g.Name, m.Type)
				}
				userID := models.NormalizeUserID(m.UserID)
				if userID == "" {
					return newError(ErrValidation, "group #%d (%s): member user id is required", i+1, g.Name)
				}
				if _, err := s.addGroupUser(ctx, tx, id, userID, typ); err != nil {
					return err
				}
				result.Members++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("imported data",
		zap.Bool("force_delete", forceDeleteTables),
		zap.Int("users", result.Users),
		zap.Int("groups", result.Groups),
		zap.Int("members", result.Members),
	)
	return result, nil
}

// ExportData returns every group with its properties and members, and every user
func (s *Service) ExportData(ctx context.Context) (*Data, error) {
	data := &Data{Groups: []DataGroup{}, Users: []DataUser{}}
	err := s.transaction(ctx, "export data", func(tx *gorm.DB) error {
		var groups []models.Group
		if err := tx.Order("id").Find(&groups).Error; err != nil {
			return dataError(err, "find groups")
		}
		if err := attachProps(tx, groups); err != nil {
			return err
		}

		var memberships []models.GroupUser
		if err := tx.Order("group_id").Order("user_id").Find(&memberships).Error; err != nil {
			return dataError(err, "find memberships")
		}
		byGroup := make(map[uint][]DataMember, len(groups))
		for _, m := range memberships {
			byGroup[m.GroupID] = append(byGroup[m.GroupID], DataMember{UserID: m.UserID, Type: m.Type})
		}

		for _, g := range groups {
			dg := DataGroup{
				Name:        g.Name,
				Description: g.Description,
				NodePath:    g.NodePath,
				Domain:      g.Domain,
				Repository:  g.Repository,
				Props:       make([]DataProp, len(g.Props)),
				Members:     byGroup[g.ID],
			}
			for i, p := range g.Props {
				dg.Props[i] = DataProp{Key: p.Key, Value: p.Value}
			}
			if dg.Members == nil {
				dg.Members = []DataMember{}
			}
			data.Groups = append(data.Groups, dg)
		}

		var users []models.User
		if err := tx.Order("id").Find(&users).Error; err != nil {
			return dataError(err, "find users")
		}
		for _, u := range users {
			data.Users = append(data.Users, DataUser{
				ID:        u.ID,
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

	s.log.Info("exported data", zap.Int("groups", len(data.Groups)), zap.Int("users", len(data.Users)))
	return data, nil
}

// EncodeData writes data to w in the given format
func EncodeData(w io.Writer, data *Data, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(data), "failed to encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return errors.Wrap(err, "failed to encode yaml")
		}
		return errors.Wrap(enc.Close(), "failed to encode yaml")
	}
	return errors.Errorf("unsupported format %q", format)
}

// DecodeData reads a transfer document from r
func DecodeData(r io.Reader, format Format) (*Data, error) {
	var data Data
	switch format {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&data); err != nil {
			return nil, newError(ErrValidation, "invalid json document: %v", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&data); err != nil && !errors.Is(err, io.EOF) {
			return nil, newError(ErrValidation, "invalid yaml document: %v", err)
		}
	default:
		return nil, errors.Errorf("unsupported format %q", format)
	}
	return &data, nil
}

func (dg DataGroup) toModel() models.Group {
	g := models.Group{
		Name:        dg.Name,
		Description: dg.Description,
		NodePath:    dg.NodePath,
		Domain:      dg.Domain,
		Repository:  dg.Repository,
		Props:       make([]models.Prop, len(dg.Props)),
	}
	for i, p := range dg.Props {
		g.Props[i] = models.Prop{Key: p.Key, Value: p.Value}
	}
	return g
}

func (du DataUser) toModel() models.User {
	return models.User{
		ID:        models.NormalizeUserID(du.ID),
		FirstName: du.FirstName,
		LastName:  du.LastName,
		Email:     du.Email,
		Telephone: du.Telephone,
	}
}

func purgeGroups(tx *gorm.DB) error {
	if err := tx.Where("type = ?", models.PropTypeGroup).Delete(&models.Prop{}).Error; err != nil {
		return dataError(err, "purge group props")
	}
	if err := tx.Where("1 = 1").Delete(&models.GroupUser{}).Error; err != nil {
		return dataError(err, "purge group users")
	}
	return dataError(tx.Where("1 = 1").Delete(&models.Group{}).Error, "purge groups")
}
