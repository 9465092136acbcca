package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/asha/internal/bias"
	"github.com/spherical-ai/asha/internal/catalog"
	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/nlp"
)

func joinArgs(args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", fmt.Errorf("text is required")
	}
	return text, nil
}

// newClassifyCmd creates the classify subcommand.
func newClassifyCmd(c *cli) *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify the intent of a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := joinArgs(args)
			if err != nil {
				return err
			}
			p, err := c.pipeline()
			if err != nil {
				return err
			}

			intent := p.ClassifyIntent(text)
			var scores []nlp.IntentScore
			if explain {
				scores = p.Classifier.Scores(text)
			}

			if c.outputJSON {
				return c.printJSON(map[string]interface{}{
					"intent": intent,
					"scores": scores,
				})
			}

			c.ui.Success("Intent: %s", intent)
			if explain {
				rows := make([][]string, 0, len(scores))
				for _, s := range scores {
					rows = append(rows, []string{string(s.Intent), fmt.Sprintf("%.2f", s.Score)})
				}
				c.ui.Table([]string{"INTENT", "SCORE"}, rows)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "show per-intent scores")
	return cmd
}

// newEntitiesCmd creates the entities subcommand.
func newEntitiesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "entities <text>",
		Short: "Extract skills, locations, times, roles, industries and job types",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := joinArgs(args)
			if err != nil {
				return err
			}
			p, err := c.pipeline()
			if err != nil {
				return err
			}

			ents := p.ExtractEntities(text)
			if c.outputJSON {
				return c.printJSON(ents)
			}

			c.ui.Section("Entities")
			c.ui.KeyValue("Skills", strings.Join(ents.Skills, ", "))
			c.ui.KeyValue("Locations", strings.Join(ents.Locations, ", "))
			c.ui.KeyValue("Times", strings.Join(ents.Times, ", "))
			c.ui.KeyValue("Roles", strings.Join(ents.Roles, ", "))
			c.ui.KeyValue("Industries", strings.Join(ents.Industries, ", "))
			c.ui.KeyValue("Job types", strings.Join(ents.JobTypes, ", "))
			return nil
		},
	}
}

// newBiasCmd creates the bias subcommand.
func newBiasCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "bias <text>",
		Short: "Detect gender-biased language and print a corrected version",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := joinArgs(args)
			if err != nil {
				return err
			}
			p, err := c.pipeline()
			if err != nil {
				return err
			}

			res := p.DetectBias(text)
			if c.outputJSON {
				return c.printJSON(res)
			}

			if !res.HasBias {
				c.ui.Success("No biased language found")
				return nil
			}
			c.ui.Warning("Found %d biased expression(s)", len(res.Details))
			rows := make([][]string, 0, len(res.Details))
			for _, d := range res.Details {
				found := d.Biased
				if d.Type == bias.TypeStereotypicalAssumption {
					found = d.Pattern
				}
				rows = append(rows, []string{string(d.Type), found, d.Neutral})
			}
			c.ui.Table([]string{"TYPE", "FOUND", "SUGGESTION"}, rows)
			c.ui.KeyValue("Corrected", res.CorrectedText)
			return nil
		},
	}
}

// newKnowledgeCmd creates the knowledge subcommand.
func newKnowledgeCmd(c *cli) *cobra.Command {
	var (
		intent string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "knowledge <query>",
		Short: "Search the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := joinArgs(args)
			if err != nil {
				return err
			}
			p, err := c.pipeline()
			if err != nil {
				return err
			}

			in := domain.Intent(intent)
			if intent == "" {
				in = p.ClassifyIntent(query)
			} else if !in.Valid() {
				return fmt.Errorf("unknown intent %q", intent)
			}

			results := p.RetrieveKnowledge(query, in, limit)
			if c.outputJSON {
				return c.printJSON(map[string]interface{}{
					"intent":  in,
					"results": results,
					"context": p.FormatKnowledgeContext(results),
				})
			}

			if len(results) == 0 {
				c.ui.Info("No knowledge chunks matched")
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Item.ID, r.Item.Topic, fmt.Sprintf("%.2f", r.Score), r.Item.Source})
			}
			c.ui.Table([]string{"ID", "TOPIC", "SCORE", "SOURCE"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&intent, "intent", "", "intent to bias retrieval (default: classified from the query)")
	cmd.Flags().IntVar(&limit, "limit", 3, "maximum results")
	return cmd
}

// newRankCmd creates the rank subcommand.
func newRankCmd(c *cli) *cobra.Command {
	var (
		itemType string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "rank <query>",
		Short: "Rank catalog jobs, events or mentorships against a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			query, err := joinArgs(args)
			if err != nil {
				return err
			}
			variant, err := domain.ParseVariant(itemType)
			if err != nil {
				return err
			}
			p, err := c.pipeline()
			if err != nil {
				return err
			}
			cat, err := catalog.NewStaticCatalog(time.Now())
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			items, err := catalogItems(ctx, cat, variant)
			if err != nil {
				return err
			}

			ranked, err := p.RankCandidates(query, items, variant, p.ExtractEntities(query), limit)
			if err != nil {
				return err
			}
			if c.outputJSON {
				return c.printJSON(ranked)
			}

			if len(ranked) == 0 {
				c.ui.Info("No %s matched", variant)
				return nil
			}
			rows := make([][]string, 0, len(ranked))
			for i, r := range ranked {
				rows = append(rows, []string{fmt.Sprint(i + 1), r.Item.CandidateID(), candidateTitle(r.Item), fmt.Sprintf("%.0f", r.Score)})
			}
			c.ui.Table([]string{"#", "ID", "TITLE", "SCORE"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&itemType, "type", "t", "job", "candidate type (job, event, mentorship)")
	cmd.Flags().IntVar(&limit, "limit", 3, "maximum results")
	return cmd
}

func catalogItems(ctx context.Context, p catalog.Provider, variant domain.Variant) ([]domain.Candidate, error) {
	var items []domain.Candidate
	switch variant {
	case domain.VariantJob:
		jobs, err := p.Jobs(ctx, catalog.JobFilter{})
		if err != nil {
			return nil, err
		}
		for _, j := range jobs {
			items = append(items, j)
		}
	case domain.VariantEvent:
		events, err := p.Events(ctx, catalog.EventFilter{})
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			items = append(items, e)
		}
	case domain.VariantMentorship:
		programs, err := p.Mentorships(ctx, catalog.MentorshipFilter{})
		if err != nil {
			return nil, err
		}
		for _, m := range programs {
			items = append(items, m)
		}
	}
	return items, nil
}

func candidateTitle(c domain.Candidate) string {
	switch v := c.(type) {
	case *domain.Job:
		return v.Title + " (" + v.Company + ")"
	case *domain.Event:
		return v.Title
	case *domain.Mentorship:
		return v.Title + " with " + v.Mentor
	default:
		return ""
	}
}
