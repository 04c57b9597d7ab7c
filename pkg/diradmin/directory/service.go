// Package directory implements the administrative directory: groups, their
// properties and members, users, the exclusive lock and bulk import/export.
package directory

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mikepea/diradmin/pkg/diradmin/lookup"
)

// Service performs directory operations. Every exported method runs in its
// own transaction.
type Service struct {
	db       *gorm.DB
	lookup   lookup.Lookup
	log      *zap.Logger
	validate *validator.Validate
}

// NewService creates a directory service backed by db. Unknown users are
// resolved through l.
func NewService(db *gorm.DB, l lookup.Lookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if l == nil {
		l = lookup.NewStatic()
	}
	return &Service{
		db:       db,
		lookup:   l,
		log:      logger.Named("directory"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// transaction runs fn in a database transaction, rolling back when fn fails
func (s *Service) transaction(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	return dataError(err, op)
}

// validateStruct runs the struct tag validation and renders failures into one message
func (s *Service) validateStruct(what string, v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Kind: ErrValidation, Msg: what + " is invalid", cause: err}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return newError(ErrValidation, "%s is invalid: %s", what, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "email":
		return field + " must be a valid email address"
	default:
		return field + " failed " + fe.Tag()
	}
}

// rejectWildcard enforces that search keys never carry the SQL LIKE wildcard
func rejectWildcard(key string) error {
	if strings.Contains(key, "%") {
		return newError(ErrWildcardNotAllowed, "character '%%' is not allowed in search key")
	}
	return nil
}
