// Package persistence turns configuration into a ready bun.DB.
//
// Configuration lives under the "database" key:
//
//	database:
//	  driver: postgres            # or sqlite3
//	  url: postgres://localhost:5432/app?sslmode=disable
//	  username: app
//	  password: secret
//	  log_queries: false
//	  pool:
//	    max_open_conns: 25
//	    max_idle_conns: 5
//	    conn_max_lifetime: 4h
//	    conn_max_idle_time: 15m
//
// Every key can be overridden from the environment with the DAO_ prefix,
// e.g. DAO_DATABASE_URL or DAO_DATABASE_POOL_MAX_OPEN_CONNS. LoadEnvFiles
// reads .env and .env.local first:
//
//	_ = persistence.LoadEnvFiles()
//	cfg, err := persistence.LoadConfig(viper.GetViper())
//	if err != nil {
//		return err
//	}
//	db, err := persistence.Open(ctx, cfg, slog.Default())
package persistence
