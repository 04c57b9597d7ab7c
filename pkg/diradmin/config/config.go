package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/mikepea/diradmin/pkg/diradmin/database"
	"github.com/mikepea/diradmin/pkg/diradmin/logging"
	"github.com/mikepea/diradmin/pkg/diradmin/lookup"
)

// EnvPrefix prefixes every environment override, e.g. DIRADMIN_DATABASE_DSN
const EnvPrefix = "DIRADMIN"

const (
	LookupNone   = "none"
	LookupStatic = "static"
	LookupLDAP   = "ldap"
)

// Config is the complete application configuration
type Config struct {
	Database database.Config `mapstructure:"database"`
	Log      logging.Config  `mapstructure:"log"`
	HTTP     HTTPConfig      `mapstructure:"http"`
	Auth     AuthConfig      `mapstructure:"auth"`
	Lookup   LookupConfig    `mapstructure:"lookup"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	Issuer   string        `mapstructure:"issuer"`
}

// LookupConfig selects the directory used to resolve unknown users
type LookupConfig struct {
	Backend    string            `mapstructure:"backend"`
	StaticFile string            `mapstructure:"static_file"`
	LDAP       lookup.LDAPConfig `mapstructure:"ldap"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", database.DriverSQLite)
	v.SetDefault("database.dsn", "diradmin.db")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("http.addr", ":8080")

	// Default for development only - should be set in production
	v.SetDefault("auth.secret", "diradmin-dev-secret-change-in-production")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.issuer", "diradmin")

	v.SetDefault("lookup.backend", LookupNone)
	v.SetDefault("lookup.static_file", "")
	v.SetDefault("lookup.ldap.url", "")
	v.SetDefault("lookup.ldap.bind_dn", "")
	v.SetDefault("lookup.ldap.bind_password", "")
	v.SetDefault("lookup.ldap.base_dn", "")
	v.SetDefault("lookup.ldap.filter", "(uid=%s)")
	v.SetDefault("lookup.ldap.timeout", 10*time.Second)
	v.SetDefault("lookup.ldap.attr_id", "uid")
	v.SetDefault("lookup.ldap.attr_first_name", "givenName")
	v.SetDefault("lookup.ldap.attr_last_name", "sn")
	v.SetDefault("lookup.ldap.attr_email", "mail")
	v.SetDefault("lookup.ldap.attr_telephone", "telephoneNumber")
}

// Load reads configuration from defaults, an optional file at path and
// DIRADMIN_* environment variables, in increasing precedence. A .env file in
// the working directory is loaded into the environment first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints viper cannot express
func (c *Config) Validate() error {
	switch c.Lookup.Backend {
	case LookupNone:
	case LookupStatic:
		if c.Lookup.StaticFile == "" {
			return errors.New("lookup.static_file is required for the static lookup backend")
		}
	case LookupLDAP:
		if c.Lookup.LDAP.URL == "" || c.Lookup.LDAP.BaseDN == "" {
			return errors.New("lookup.ldap.url and lookup.ldap.base_dn are required for the ldap lookup backend")
		}
	default:
		return errors.Errorf("unknown lookup backend %q", c.Lookup.Backend)
	}

	if c.Auth.Secret == "" {
		return errors.New("auth.secret must not be empty")
	}

	return nil
}
