package main

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/asha/internal/lexicon"
	"github.com/spherical-ai/asha/internal/monitoring"
	"github.com/spherical-ai/asha/internal/storage"
)

// newLexiconCmd creates the lexicon command group.
func newLexiconCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Inspect and validate keyword lexicons",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a lexicon override file (default: the configured lexicon)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.cfg.Lexicon.Path
			if len(args) == 1 {
				path = args[0]
			}
			lx, err := lexicon.Load(path)
			if err != nil {
				if c.outputJSON {
					c.printJSON(map[string]interface{}{"valid": false, "path": path, "error": err.Error()})
				}
				return err
			}

			source := path
			if source == "" {
				source = "built-in"
			}
			summary := lexiconSummary(lx)
			if c.outputJSON {
				out := map[string]interface{}{"valid": true, "path": source}
				for _, kv := range summary {
					out[kv.key] = kv.count
				}
				return c.printJSON(out)
			}
			c.ui.Success("Lexicon %s is valid", source)
			for _, kv := range summary {
				c.ui.KeyValue(kv.label, kv.count)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective lexicon as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			lx, err := lexicon.Load(c.cfg.Lexicon.Path)
			if err != nil {
				return err
			}
			if c.outputJSON {
				return c.printJSON(lx)
			}
			data, err := lx.Marshal()
			if err != nil {
				return err
			}
			_, err = c.out.Write(data)
			return err
		},
	})

	return cmd
}

type lexiconCount struct {
	key   string
	label string
	count int
}

func lexiconSummary(lx *lexicon.Lexicon) []lexiconCount {
	return []lexiconCount{
		{"intents", "Intents", len(lx.Intents)},
		{"biasedTerms", "Biased term groups", len(lx.Bias.Terms)},
		{"biasedPhrases", "Biased phrases", len(lx.Bias.Phrases)},
		{"stereotypes", "Stereotype patterns", len(lx.Bias.Stereotypes)},
		{"knowledge", "Knowledge chunks", len(lx.Knowledge)},
	}
}

// newMigrateCmd creates the migrate subcommand.
func newMigrateCmd(c *cli) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply pending migrations to the configured SQLite or Postgres database.
Use --status to list applied and pending versions without changing anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			db, err := storage.Connect(ctx, c.cfg.Database.Driver, c.cfg.DatabaseDSN())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			m := storage.NewMigrator(db, c.cfg.Database.Driver)

			if status {
				st, err := m.Status(ctx)
				if err != nil {
					return err
				}
				if c.outputJSON {
					return c.printJSON(map[string]interface{}{"applied": st.Applied, "pending": st.Pending})
				}
				rows := make([][]string, 0, len(st.Applied)+len(st.Pending))
				for _, v := range st.Applied {
					rows = append(rows, []string{v, "applied"})
				}
				for _, v := range st.Pending {
					rows = append(rows, []string{v, "pending"})
				}
				c.ui.Table([]string{"VERSION", "STATE"}, rows)
				return nil
			}

			ran, err := m.Migrate(ctx)
			if err != nil {
				return err
			}
			c.logger.Info().Strs("versions", ran).Str("driver", c.cfg.Database.Driver).Msg("Migrations applied")
			if c.outputJSON {
				return c.printJSON(map[string]interface{}{"applied": ran})
			}
			if len(ran) == 0 {
				c.ui.Info("Database is up to date")
				return nil
			}
			c.ui.Success("Applied %d migration(s): %s", len(ran), strings.Join(ran, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show migration status only")
	return cmd
}

// newPurgeCmd creates the purge subcommand.
func newPurgeCmd(c *cli) *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete conversation turns older than a retention window",
		Long: `Purge deletes stored conversation turns older than --older-than.
The window accepts Go durations (720h) or whole days (30d). The default is
the configured retention max_age.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			maxAge := c.cfg.Retention.MaxAge
			if olderThan != "" {
				d, err := parseAge(olderThan)
				if err != nil {
					return err
				}
				maxAge = d
			}

			store, err := storage.Open(ctx, c.cfg.Database.Driver, c.cfg.DatabaseDSN())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer store.Close()

			runner := monitoring.NewRetentionRunner(store.Conversations, c.logger, monitoring.RetentionConfig{MaxAge: maxAge})
			n, err := runner.RunOnce(ctx)
			if err != nil {
				return err
			}
			if c.outputJSON {
				return c.printJSON(map[string]interface{}{"deleted": n, "olderThan": maxAge.String()})
			}
			c.ui.Success("Deleted %d conversation turn(s) older than %s", n, maxAge)
			return nil
		},
	}

	cmd.Flags().StringVar(&olderThan, "older-than", "", "retention window, e.g. 720h or 30d")
	return cmd
}

// parseAge accepts a positive Go duration or a whole number of days.
func parseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var d time.Duration
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid age %q", s)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		var err error
		if d, err = time.ParseDuration(s); err != nil {
			return 0, fmt.Errorf("invalid age %q: %w", s, err)
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("age must be positive, got %q", s)
	}
	return d, nil
}

// newVersionCmd creates the version subcommand.
func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.outputJSON {
				return c.printJSON(map[string]string{
					"version": Version,
					"go":      runtime.Version(),
				})
			}
			fmt.Fprintf(c.out, "asha-cli v%s\n", Version)
			return nil
		},
	}
}
