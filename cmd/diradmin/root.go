package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mikepea/diradmin/pkg/diradmin/config"
	"github.com/mikepea/diradmin/pkg/diradmin/database"
	"github.com/mikepea/diradmin/pkg/diradmin/directory"
	"github.com/mikepea/diradmin/pkg/diradmin/logging"
	"github.com/mikepea/diradmin/pkg/diradmin/lookup"
	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "diradmin",
	Short:        "Administrative directory of groups, members and properties.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
}

// app holds what every command needs once configuration is loaded
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	if err := database.Connect(cfg.Database); err != nil {
		logger.Sync()
		return nil, err
	}
	db := database.GetDB()

	if err := models.AutoMigrate(db); err != nil {
		database.Close(db)
		logger.Sync()
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	logger.Debug("database migrations completed", zap.String("driver", cfg.Database.Driver))

	return &app{cfg: cfg, log: logger, db: db}, nil
}

func (a *app) close() {
	if err := database.Close(a.db); err != nil {
		a.log.Warn("failed to close database", zap.Error(err))
	}
	_ = a.log.Sync()
}

func (a *app) service() (*directory.Service, error) {
	l, err := a.lookup()
	if err != nil {
		return nil, err
	}
	return directory.NewService(a.db, l, a.log), nil
}

func (a *app) lookup() (lookup.Lookup, error) {
	switch a.cfg.Lookup.Backend {
	case config.LookupStatic:
		return lookup.LoadStaticFile(a.cfg.Lookup.StaticFile)
	case config.LookupLDAP:
		return lookup.NewLDAP(a.cfg.Lookup.LDAP, a.log)
	default:
		a.log.Warn("no directory lookup configured, only locally known users can become members")
		return lookup.NewStatic(), nil
	}
}
