package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/spherical-ai/asha/internal/chat"
	"github.com/spherical-ai/asha/internal/domain"
)

// EvalCase is one labelled message. Bias and Corrected are optional checks.
type EvalCase struct {
	Name      string        `yaml:"name" json:"name"`
	Text      string        `yaml:"text" json:"text"`
	Intent    domain.Intent `yaml:"intent" json:"intent"`
	Bias      *bool         `yaml:"bias,omitempty" json:"bias,omitempty"`
	Corrected string        `yaml:"corrected,omitempty" json:"corrected,omitempty"`
}

type evalFile struct {
	Cases []EvalCase `yaml:"cases"`
}

// EvalResult is the outcome of one case.
type EvalResult struct {
	Case     EvalCase      `json:"case"`
	Intent   domain.Intent `json:"intent"`
	Passed   bool          `json:"passed"`
	Failures []string      `json:"failures,omitempty"`
}

// EvalReport summarises a run. Results keep the file order.
type EvalReport struct {
	Total    int           `json:"total"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Accuracy float64       `json:"accuracy"`
	Duration time.Duration `json:"durationNs"`
	Results  []EvalResult  `json:"results"`
}

// loadEvalCases reads and validates a case file.
func loadEvalCases(path string) ([]EvalCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read eval file: %w", err)
	}
	var f evalFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse eval file: %w", err)
	}
	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("eval file %s has no cases", path)
	}
	for i := range f.Cases {
		c := &f.Cases[i]
		if strings.TrimSpace(c.Text) == "" {
			return nil, fmt.Errorf("case %d: text is required", i+1)
		}
		if !c.Intent.Valid() {
			return nil, fmt.Errorf("case %d: unknown intent %q", i+1, c.Intent)
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("case-%d", i+1)
		}
	}
	return f.Cases, nil
}

// runEval scores every case concurrently. done is called once per finished
// case and may be nil.
func runEval(ctx context.Context, p *chat.Pipeline, cases []EvalCase, done func()) (*EvalReport, error) {
	start := time.Now()
	results := make([]EvalResult, len(cases))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range cases {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = evaluate(p, c)
			if done != nil {
				mu.Lock()
				done()
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &EvalReport{Total: len(cases), Results: results, Duration: time.Since(start)}
	for _, r := range results {
		if r.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	if report.Total > 0 {
		report.Accuracy = float64(report.Passed) / float64(report.Total)
	}
	return report, nil
}

func evaluate(p *chat.Pipeline, c EvalCase) EvalResult {
	res := EvalResult{Case: c, Intent: p.ClassifyIntent(c.Text)}
	if res.Intent != c.Intent {
		res.Failures = append(res.Failures, fmt.Sprintf("intent %s, want %s", res.Intent, c.Intent))
	}
	if c.Bias != nil || c.Corrected != "" {
		b := p.DetectBias(c.Text)
		if c.Bias != nil && b.HasBias != *c.Bias {
			res.Failures = append(res.Failures, fmt.Sprintf("bias %t, want %t", b.HasBias, *c.Bias))
		}
		if c.Corrected != "" && b.CorrectedText != c.Corrected {
			res.Failures = append(res.Failures, fmt.Sprintf("corrected %q, want %q", b.CorrectedText, c.Corrected))
		}
	}
	res.Passed = len(res.Failures) == 0
	return res
}

// newEvalCmd creates the eval subcommand.
func newEvalCmd(c *cli) *cobra.Command {
	var (
		file       string
		failedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate intent classification and bias detection against labelled cases",
		Long: `Eval runs every case in a YAML file through the classifier and, when the
case asks for it, the bias detector. The command exits non-zero when any case fails.

File format:
  cases:
    - name: remote job
      text: Find remote work in Bangalore
      intent: job_search
    - text: We need a chairman
      intent: help
      bias: true
      corrected: We need a chairperson`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			cases, err := loadEvalCases(file)
			if err != nil {
				return err
			}
			p, err := c.pipeline()
			if err != nil {
				return err
			}

			c.ui.Step("Evaluating %d cases from %s", len(cases), file)
			var done func()
			if bar := c.ui.ProgressBar("eval", int64(len(cases))); bar != nil {
				done = func() { bar.Increment() }
			}

			report, err := runEval(cmd.Context(), p, cases, done)
			if err != nil {
				return err
			}
			c.logger.Debug().Int("total", report.Total).Int("failed", report.Failed).Dur("duration", report.Duration).Msg("Eval finished")

			if c.outputJSON {
				if err := c.printJSON(report); err != nil {
					return err
				}
			} else {
				printEvalReport(c.ui, report, failedOnly)
			}

			if report.Failed > 0 {
				return fmt.Errorf("%d of %d cases failed", report.Failed, report.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML case file")
	cmd.Flags().BoolVar(&failedOnly, "failed-only", false, "only list failing cases")
	return cmd
}

func printEvalReport(ui *UI, report *EvalReport, failedOnly bool) {
	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		if failedOnly && r.Passed {
			continue
		}
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		rows = append(rows, []string{status, r.Case.Name, string(r.Case.Intent), string(r.Intent), strings.Join(r.Failures, "; ")})
	}
	ui.Section("Eval report")
	ui.Table([]string{"STATUS", "CASE", "EXPECTED", "GOT", "DETAIL"}, rows)
	ui.KeyValue("Accuracy", fmt.Sprintf("%.1f%% (%d/%d)", report.Accuracy*100, report.Passed, report.Total))
	ui.KeyValue("Duration", FormatDuration(report.Duration))
	if report.Failed == 0 {
		ui.Success("All cases passed")
	} else {
		ui.Error("%d cases failed", report.Failed)
	}
}
