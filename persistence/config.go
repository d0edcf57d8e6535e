package persistence

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// EnvPrefix is prepended to environment overrides, e.g. DAO_DATABASE_URL.
const EnvPrefix = "dao"

// Config describes the database connection and its pool. It is read from
// the "database" section of the configuration.
type Config struct {
	Driver     string     `mapstructure:"driver"`
	URL        string     `mapstructure:"url"`
	Username   string     `mapstructure:"username"`
	Password   string     `mapstructure:"password"`
	Pool       PoolConfig `mapstructure:"pool"`
	LogQueries bool       `mapstructure:"log_queries"`
}

// PoolConfig holds the database/sql pool limits. Zero values mean no limit,
// as in database/sql.
type PoolConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DefaultConfig returns an in-memory sqlite configuration with conservative
// pool limits.
func DefaultConfig() Config {
	return Config{
		Driver: DriverSQLite,
		URL:    "file::memory:?cache=shared",
		Pool: PoolConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 4 * time.Hour,
			ConnMaxIdleTime: 15 * time.Minute,
		},
	}
}

// Validate checks the driver, the URL and the pool limits. Failures match
// errors.ErrConfiguration.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Pool),
	)
	if err != nil {
		return &daoerrors.ConfigurationError{Type: "persistence.Config", Message: err.Error()}
	}
	return nil
}

// Validate checks that no limit is negative and that the idle limit does not
// exceed a bounded open limit.
func (p PoolConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MaxOpenConns, validation.Min(0)),
		validation.Field(&p.MaxIdleConns, validation.Min(0), validation.By(func(any) error {
			if p.MaxOpenConns > 0 && p.MaxIdleConns > p.MaxOpenConns {
				return errors.New("must not exceed max_open_conns")
			}
			return nil
		})),
		validation.Field(&p.ConnMaxLifetime, validation.Min(time.Duration(0))),
		validation.Field(&p.ConnMaxIdleTime, validation.Min(time.Duration(0))),
	)
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped. With
// no arguments it loads ".env" and ".env.local".
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return pkgerrors.Wrapf(err, "could not load env file %s", file)
		}
	}
	return nil
}

// LoadConfig reads the database section from v, with DefaultConfig values as
// defaults and DAO_ prefixed environment variables as overrides. A nil v
// uses a fresh viper instance. The result is validated.
func LoadConfig(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("database.driver", def.Driver)
	v.SetDefault("database.url", def.URL)
	v.SetDefault("database.username", def.Username)
	v.SetDefault("database.password", def.Password)
	v.SetDefault("database.pool.max_open_conns", def.Pool.MaxOpenConns)
	v.SetDefault("database.pool.max_idle_conns", def.Pool.MaxIdleConns)
	v.SetDefault("database.pool.conn_max_lifetime", def.Pool.ConnMaxLifetime)
	v.SetDefault("database.pool.conn_max_idle_time", def.Pool.ConnMaxIdleTime)
	v.SetDefault("database.log_queries", def.LogQueries)

	var root struct {
		Database Config `mapstructure:"database"`
	}
	if err := v.Unmarshal(&root); err != nil {
		return Config{}, pkgerrors.Wrap(err, "could not decode database configuration")
	}
	if err := root.Database.Validate(); err != nil {
		return Config{}, err
	}
	return root.Database, nil
}
