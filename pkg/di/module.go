package di

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-generic-dao/cache"
	"github.com/goliatone/go-generic-dao/daocache"
	"github.com/goliatone/go-generic-dao/mapping"
	"github.com/goliatone/go-generic-dao/session"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
)

// Models lists the entity models an fx application registers. Supply it with
// fx.Supply(di.Models{(*User)(nil)}).
type Models []any

// Params are the optional inputs of Module. Without a Config value the
// defaults are used; without a logger slog.Default() is used.
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *Config      `optional:"true"`
	Models    Models       `optional:"true"`
	Logger    *slog.Logger `optional:"true"`
}

// Module provides the Container and its components to an fx application.
// The database is pinged on start and closed on stop.
var Module = fx.Module("dao",
	fx.Provide(
		ProvideContainer,
		func(c *Container) *bun.DB { return c.DB() },
		func(c *Container) *mapping.Registry { return c.Registry() },
		func(c *Container) *session.Factory { return c.SessionFactory() },
		func(c *Container) *session.TransactionManager { return c.TransactionManager() },
		func(c *Container) cache.CacheService { return c.CacheService() },
		func(c *Container) cache.KeySerializer { return c.KeySerializer() },
		func(c *Container) *daocache.KeyRegistry { return c.KeyRegistry() },
	),
)

// ProvideContainer builds a Container for fx. Tables of the supplied models
// are created.
func ProvideContainer(p Params) (*Container, error) {
	cfg := DefaultConfig()
	if p.Config != nil {
		cfg = *p.Config
	}
	opts := []Option{WithModels(p.Models...), WithCreateTables()}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}

	c, err := NewContainer(context.Background(), cfg, opts...)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.Ping(ctx)
		},
		OnStop: func(context.Context) error {
			c.Logger().Info("closing database")
			return c.Close()
		},
	})
	return c, nil
}
