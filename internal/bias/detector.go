// Package bias detects gender-biased vocabulary and rewrites it to neutral
// alternatives.
package bias

import (
	"context"
	"regexp"
	"strings"

	"github.com/spherical-ai/asha/internal/lexicon"
	"github.com/spherical-ai/asha/internal/observability"
)

// DetailType classifies a finding.
type DetailType string

const (
	TypeBiasedTerm              DetailType = "biased_term"
	TypeBiasedPhrase            DetailType = "biased_phrase"
	TypeStereotypicalAssumption DetailType = "stereotypical_assumption"
)

// Detail describes one finding. Terms and phrases carry Biased and Neutral;
// stereotypes carry only Pattern.
type Detail struct {
	Type    DetailType `json:"type"`
	Biased  string     `json:"biased,omitempty"`
	Neutral string     `json:"neutral,omitempty"`
	Pattern string     `json:"pattern,omitempty"`
}

// Result is the outcome of a detection pass. Details is nil when nothing
// was found.
type Result struct {
	HasBias       bool     `json:"hasBias"`
	CorrectedText string   `json:"correctedText"`
	Details       []Detail `json:"biasDetails"`
}

const mitigationInstructions = "Note: The user query contains potentially biased language. Please ensure your response:" +
	"\n- Uses gender-neutral language" +
	"\n- Avoids reinforcing gender stereotypes" +
	"\n- Focuses on skills, qualifications, and experiences rather than gender" +
	"\n- Provides balanced information applicable to all genders"

type replacement struct {
	re      *regexp.Regexp
	biased  string
	neutral string
}

type stereotype struct {
	re      *regexp.Regexp
	display string
}

// Detector runs the term, phrase and stereotype tables over text, in that
// order. Each stage sees the output of the previous one.
type Detector struct {
	terms       []replacement
	phrases     []replacement
	stereotypes []stereotype
	logger      *observability.Logger
}

// NewDetector compiles the lexicon's bias tables. The lexicon must already
// be validated; a nil logger discards output.
func NewDetector(lx *lexicon.Lexicon, logger *observability.Logger) *Detector {
	d := &Detector{logger: observability.OrNop(logger)}

	for _, group := range lx.Bias.Terms {
		for _, term := range group.Biased {
			d.terms = append(d.terms, replacement{
				re:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
				biased:  term,
				neutral: group.Neutral,
			})
		}
	}
	for _, p := range lx.Bias.Phrases {
		d.phrases = append(d.phrases, replacement{
			re:      regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p.Phrase)),
			biased:  p.Phrase,
			neutral: p.Neutral,
		})
	}
	for _, s := range lx.Bias.Stereotypes {
		if !s.Biased {
			continue
		}
		d.stereotypes = append(d.stereotypes, stereotype{
			re:      regexp.MustCompile(`(?i)` + s.Pattern),
			display: "/" + s.Pattern + "/i",
		})
	}
	return d
}

// Detect reports bias in text and returns a neutralised copy. Stereotypes
// are flagged but never rewritten.
func (d *Detector) Detect(text string) Result {
	res := Result{CorrectedText: text}
	if text == "" {
		return res
	}

	corrected := text
	var details []Detail

	for _, r := range d.terms {
		if !r.re.MatchString(corrected) {
			continue
		}
		corrected = r.re.ReplaceAllLiteralString(corrected, r.neutral)
		details = append(details, Detail{Type: TypeBiasedTerm, Biased: r.biased, Neutral: r.neutral})
	}

	for _, r := range d.phrases {
		if !r.re.MatchString(corrected) {
			continue
		}
		corrected = r.re.ReplaceAllLiteralString(corrected, r.neutral)
		details = append(details, Detail{Type: TypeBiasedPhrase, Biased: r.biased, Neutral: r.neutral})
	}

	for _, s := range d.stereotypes {
		if s.re.MatchString(corrected) {
			details = append(details, Detail{Type: TypeStereotypicalAssumption, Pattern: s.display})
		}
	}

	res.CorrectedText = corrected
	res.Details = details
	res.HasBias = len(details) > 0
	return res
}

// AnalyzeResponse runs Detect over generated assistant text and logs any
// finding. The reply itself is not altered.
func (d *Detector) AnalyzeResponse(ctx context.Context, text string) Result {
	res := d.Detect(text)
	if res.HasBias {
		d.logger.WithContext(ctx).Warn().
			Int("findings", len(res.Details)).
			Strs("types", detailTypes(res.Details)).
			Msg("bias detected in assistant response")
	}
	return res
}

// MitigationInstructions returns guidance for a downstream generator, or ""
// when there are no findings.
func MitigationInstructions(details []Detail) string {
	if len(details) == 0 {
		return ""
	}
	return mitigationInstructions
}

func detailTypes(details []Detail) []string {
	out := make([]string, len(details))
	for i, d := range details {
		out[i] = string(d.Type)
	}
	return out
}

// Summary renders findings as "biased -> neutral" pairs, one per line.
func Summary(details []Detail) string {
	var b strings.Builder
	for _, d := range details {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		if d.Type == TypeStereotypicalAssumption {
			b.WriteString("stereotype " + d.Pattern)
			continue
		}
		b.WriteString(d.Biased + " -> " + d.Neutral)
	}
	return b.String()
}
