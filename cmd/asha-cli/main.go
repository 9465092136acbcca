// Package main provides the Asha CLI entrypoint.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/asha/internal/chat"
	"github.com/spherical-ai/asha/internal/config"
	"github.com/spherical-ai/asha/internal/lexicon"
	"github.com/spherical-ai/asha/internal/observability"
)

// Version is overridden at build time with -ldflags.
var Version = "0.1.0"

// cli carries global flags and the state loaded before each command runs.
type cli struct {
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "asha-cli",
		Short: "Asha CLI for exercising and administering the assistant pipeline",
		Long: `Asha CLI runs individual pipeline stages against text and manages the
assistant's lexicon and database.

Use this tool to:
- Classify intents and extract entities
- Detect and correct biased language
- Search the knowledge base and rank catalog items
- Evaluate the classifier against a YAML case file
- Run migrations and purge old conversation history

All commands support --json for automation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional
			_ = godotenv.Load()

			var err error
			c.cfg, err = config.Load(c.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			level := "warn"
			if c.verbose {
				level = "debug"
			}
			logFormat := "console"
			if c.outputJSON {
				logFormat = "json"
			}
			c.logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      logFormat,
				Output:      cmd.ErrOrStderr(),
				ServiceName: "asha-cli",
			})

			c.out = cmd.OutOrStdout()
			c.ui = NewUI(c.out, c.outputJSON, c.noColor)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.ui != nil {
				c.ui.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	root.PersistentFlags().BoolVar(&c.outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(newClassifyCmd(c))
	root.AddCommand(newEntitiesCmd(c))
	root.AddCommand(newBiasCmd(c))
	root.AddCommand(newKnowledgeCmd(c))
	root.AddCommand(newRankCmd(c))
	root.AddCommand(newChatCmd(c))
	root.AddCommand(newEvalCmd(c))
	root.AddCommand(newLexiconCmd(c))
	root.AddCommand(newMigrateCmd(c))
	root.AddCommand(newPurgeCmd(c))
	root.AddCommand(newVersionCmd(c))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// pipeline builds the stateless stages from the configured lexicon.
func (c *cli) pipeline() (*chat.Pipeline, error) {
	lx, err := lexicon.Load(c.cfg.Lexicon.Path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	return chat.NewPipeline(lx, c.logger), nil
}

func (c *cli) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
