package persistence

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// DSN returns the driver data source name. For postgres, Username and
// Password are merged into the URL when it carries no credentials.
func (c Config) DSN() (string, error) {
	if c.Driver != DriverPostgres || c.Username == "" {
		return c.URL, nil
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not parse database url")
	}
	if u.User != nil {
		return c.URL, nil
	}
	if c.Password == "" {
		u.User = url.User(c.Username)
	} else {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u.String(), nil
}

// OpenPool opens the pooled connection described by cfg. It does not
// contact the database.
func OpenPool(cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	sqldb, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "could not open %s database", cfg.Driver)
	}

	sqldb.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.Pool.ConnMaxIdleTime)

	logger.Info("Database connection pool configured",
		"driver", cfg.Driver,
		"maxOpenConns", cfg.Pool.MaxOpenConns,
		"maxIdleConns", cfg.Pool.MaxIdleConns,
		"connMaxLifetime", cfg.Pool.ConnMaxLifetime,
		"connMaxIdleTime", cfg.Pool.ConnMaxIdleTime,
	)
	return sqldb, nil
}

// Dialect returns the bun dialect for driver.
func Dialect(driver string) (schema.Dialect, error) {
	switch driver {
	case DriverSQLite:
		return sqlitedialect.New(), nil
	case DriverPostgres:
		return pgdialect.New(), nil
	default:
		return nil, daoerrors.NewConfigurationError("persistence.Config", "unsupported driver "+driver)
	}
}

// NewDB wraps sqldb in a bun.DB using the dialect of cfg.Driver. With
// LogQueries set, every statement is logged through a QueryLogger.
func NewDB(sqldb *sql.DB, cfg Config, logger *slog.Logger) (*bun.DB, error) {
	if sqldb == nil {
		return nil, daoerrors.NewNilArgumentError("sqldb")
	}
	dialect, err := Dialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, dialect)
	if cfg.LogQueries {
		db.AddQueryHook(NewQueryLogger(logger))
	}
	return db, nil
}

// Open opens the pool, wraps it in a bun.DB and pings the database. The pool
// is closed again when any step fails.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*bun.DB, error) {
	sqldb, err := OpenPool(cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := NewDB(sqldb, cfg, logger)
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrapf(err, "could not reach %s database", cfg.Driver)
	}
	return db, nil
}
