package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/asha/internal/app"
	"github.com/spherical-ai/asha/internal/chat"
)

// newChatCmd creates the one-shot chat subcommand.
func newChatCmd(c *cli) *cobra.Command {
	var (
		sessionID string
		persist   bool
	)

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message through the full assistant pipeline",
		Long: `Chat runs a single message through classification, entity extraction,
bias mitigation, knowledge retrieval, ranking and reply composition.

With --persist the turn is stored in the configured database and earlier
turns of --session are used as history.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			text, err := joinArgs(args)
			if err != nil {
				return err
			}

			a, err := app.New(ctx, c.cfg, c.logger, app.Options{WithoutStorage: !persist})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			resp, err := a.Assistant.Process(ctx, chat.Message{SessionID: sessionID, Text: text})
			if err != nil {
				return err
			}
			if c.outputJSON {
				return c.printJSON(resp)
			}

			c.ui.KeyValue("Session", resp.SessionID)
			c.ui.KeyValue("Intent", resp.Intent)
			if resp.Bias.HasBias {
				c.ui.Warning("Rewrote biased language: %s", resp.Bias.CorrectedText)
			}
			for _, w := range resp.Warnings {
				c.ui.Warning("%s", w)
			}
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, resp.Reply.Text)
			if att := resp.Reply.Attachment; att != nil {
				fmt.Fprintln(c.out)
				c.ui.Info("Attached %s: %s", att.Type, candidateTitle(att.Data))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id (default: generated)")
	cmd.Flags().BoolVar(&persist, "persist", false, "store the turn in the configured database")
	return cmd
}
