package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-generic-dao/persistence"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version of daoctl.
const Version = "0.1.0"

// NewRootCmd builds the daoctl command tree around its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "daoctl",
		Short: "inspect and exercise a generic DAO database",
		Long: fmt.Sprintf(`daoctl (v%s)

Connects to the configured database through the generic DAO stack.
Configuration is read from flags, DAO_ prefixed environment variables
and .env / .env.local files.`, Version),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := persistence.LoadEnvFiles(); err != nil {
				return err
			}
			initLogger(cmd.ErrOrStderr(), v.GetString("log-level"))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("database-driver", persistence.DriverSQLite, "database driver (sqlite3, postgres)")
	flags.String("database-url", persistence.DefaultConfig().URL, "database url")
	flags.String("database-username", "", "database username, merged into postgres urls")
	flags.String("database-password", "", "database password, merged into postgres urls")
	flags.Bool("log-queries", false, "log every SQL statement at debug level")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	_ = v.BindPFlag("database.driver", flags.Lookup("database-driver"))
	_ = v.BindPFlag("database.url", flags.Lookup("database-url"))
	_ = v.BindPFlag("database.username", flags.Lookup("database-username"))
	_ = v.BindPFlag("database.password", flags.Lookup("database-password"))
	_ = v.BindPFlag("database.log_queries", flags.Lookup("log-queries"))
	_ = v.BindPFlag("log-level", flags.Lookup("log-level"))

	root.AddCommand(newPingCmd(v))
	root.AddCommand(newDemoCmd(v))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of daoctl",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "daoctl v%s\n", Version)
		},
	}
}

func initLogger(w io.Writer, level string) {
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      parseLevel(level),
			TimeFormat: time.Kitchen,
		}),
	))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
