package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/goliatone/go-generic-dao/dao"
	"github.com/goliatone/go-generic-dao/persistence"
	"github.com/goliatone/go-generic-dao/pkg/di"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"
)

// Note is the entity the demo stores.
type Note struct {
	bun.BaseModel `bun:"table:daoctl_notes,alias:n"`

	ID        *int64    `bun:"id,pk,autoincrement"`
	Title     string    `bun:"title"`
	Priority  int       `bun:"priority"`
	CreatedAt time.Time `bun:"created_at,nullzero"`
}

var demoNotes = []struct {
	title    string
	priority int
}{
	{"Write the report", 2},
	{"Review pull requests", 1},
	{"Plan the sprint", 3},
	{"Reply to reviews", 1},
	{"Update the roadmap", 2},
}

func newDemoCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Store sample notes and query them through a cached DAO",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := persistence.LoadConfig(v)
			if err != nil {
				return err
			}
			pageSize, err := cmd.Flags().GetInt("page-size")
			if err != nil {
				return err
			}
			if pageSize <= 0 {
				return fmt.Errorf("page-size must be positive, got %d", pageSize)
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), cfg, pageSize)
		},
	}
	cmd.Flags().Int("page-size", 2, "rows per page when listing notes")
	return cmd
}

func runDemo(ctx context.Context, out io.Writer, cfg persistence.Config, pageSize int) error {
	container, err := di.NewContainer(ctx, di.Config{Database: cfg, Cache: di.DefaultConfig().Cache},
		di.WithModels((*Note)(nil)),
		di.WithCreateTables(),
		di.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}
	defer container.Close()

	notes, err := di.NewCachedDAO[Note, int64](container,
		dao.WithDefaultSortCriteria(dao.Asc("Priority"), dao.Asc("Title")))
	if err != nil {
		return err
	}

	err = container.TransactionManager().RunInTransaction(ctx, func(ctx context.Context) error {
		for _, n := range demoNotes {
			if err := notes.Save(ctx, &Note{Title: n.title, Priority: n.priority, CreatedAt: time.Now()}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return container.SessionFactory().WithSession(ctx, func(ctx context.Context) error {
		count, err := notes.CountAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d notes stored\n", count)

		for first := 0; first < count; first += pageSize {
			page, err := notes.FindPage(ctx, first, pageSize)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "page %d:\n", first/pageSize+1)
			for _, n := range page {
				fmt.Fprintf(out, "  #%d [p%d] %s\n", *n.ID, n.Priority, n.Title)
			}
		}

		matches, err := notes.FindByExample(ctx, &Note{Title: "review"})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d notes mention \"review\"\n", len(matches))

		// served from the cache
		if _, err := notes.CountAll(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "%d cache keys tracked\n", container.KeyRegistry().Len())
		return nil
	})
}
