package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goliatone/go-generic-dao/persistence"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPingCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured database is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := persistence.LoadConfig(v)
			if err != nil {
				return err
			}

			timeout, _ := cmd.Flags().GetDuration("timeout")
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			start := time.Now()
			db, err := persistence.Open(ctx, cfg, slog.Default())
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s database reachable (%s, dialect %s)\n",
				cfg.Driver, time.Since(start).Round(time.Millisecond), db.Dialect().Name())
			return nil
		},
	}
	cmd.Flags().Duration("timeout", 5*time.Second, "how long to wait for the database")
	return cmd
}
