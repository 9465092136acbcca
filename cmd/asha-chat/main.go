// Package main provides the interactive Asha chat client.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/asha/cmd/asha-chat/ui"
	"github.com/spherical-ai/asha/internal/api/rpc"
	"github.com/spherical-ai/asha/internal/app"
	"github.com/spherical-ai/asha/internal/config"
	"github.com/spherical-ai/asha/internal/observability"
)

func newRootCmd() *cobra.Command {
	var (
		cfgFile   string
		sessionID string
		server    string
		persist   bool
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:   "asha-chat",
		Short: "Chat with the Asha career assistant",
		Long: `asha-chat starts an interactive session with the assistant.

By default the pipeline runs in-process. Use --server to talk to a running
asha-api instance over Connect instead.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional
			_ = godotenv.Load()

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := observability.NewLogger(observability.LogConfig{
				Level:       "warn",
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "asha-chat",
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var sender Sender
			if server != "" {
				httpClient := &http.Client{Timeout: 30 * time.Second}
				sender = remoteSender{client: rpc.NewClient(httpClient, server)}
			} else {
				a, err := app.New(ctx, cfg, logger, app.Options{WithoutStorage: !persist})
				if err != nil {
					return err
				}
				defer a.Close(context.Background())
				sender = localSender{assistant: a.Assistant}
			}

			display := ui.NewDisplay(cmd.OutOrStdout(), noColor)
			return NewREPL(sender, display, sessionID).Run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "resume a session id")
	cmd.Flags().StringVar(&server, "server", "", "asha-api base URL, e.g. http://localhost:8080")
	cmd.Flags().BoolVar(&persist, "persist", false, "store history in the configured database")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
