// Package lexicon holds the immutable keyword tables that drive intent
// classification, entity extraction, bias detection and knowledge retrieval.
// A built-in lexicon is embedded in the binary; a YAML file may override
// whole sections of it.
package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spherical-ai/asha/internal/domain"
)

//go:embed default.yaml
var defaultYAML []byte

// Lexicon is the full set of tables. Treat it as read-only once built.
type Lexicon struct {
	Intents        []IntentKeywords        `yaml:"intents"`
	Boosts         []Boost                 `yaml:"boosts"`
	Entities       Entities                `yaml:"entities"`
	Bias           Bias                    `yaml:"bias"`
	Knowledge      []domain.KnowledgeChunk `yaml:"knowledge"`
	Sentiment      Sentiment               `yaml:"sentiment"`
	Conversation   Conversation            `yaml:"conversation"`
	EventTimeTerms []string                `yaml:"event_time_terms"`
}

// IntentKeywords maps one intent category to its keywords.
type IntentKeywords struct {
	Category domain.Intent `yaml:"category"`
	Keywords []string      `yaml:"keywords"`
}

// Boost adds a flat amount to a category when every group in AllOf has at
// least one term contained in the message.
type Boost struct {
	Category domain.Intent `yaml:"category"`
	Boost    float64       `yaml:"boost"`
	AllOf    [][]string    `yaml:"all_of"`
}

// Entities holds the fixed vocabularies for entity extraction.
type Entities struct {
	Skills     []string `yaml:"skills"`
	Locations  []string `yaml:"locations"`
	Times      []string `yaml:"times"`
	Roles      []string `yaml:"roles"`
	Industries []string `yaml:"industries"`
	JobTypes   []string `yaml:"job_types"`
}

// Bias holds the three bias tables, applied in this order.
type Bias struct {
	Terms       []TermGroup  `yaml:"terms"`
	Phrases     []Phrase     `yaml:"phrases"`
	Stereotypes []Stereotype `yaml:"stereotypes"`
}

// TermGroup is a set of biased whole words sharing one neutral replacement.
type TermGroup struct {
	Biased  []string `yaml:"biased"`
	Neutral string   `yaml:"neutral"`
}

// Phrase is a biased substring and its neutral replacement.
type Phrase struct {
	Phrase  string `yaml:"phrase"`
	Neutral string `yaml:"neutral"`
}

// Stereotype is a case-insensitive regular expression that flags, but never
// rewrites, stereotyped text.
type Stereotype struct {
	Pattern string `yaml:"pattern"`
	Biased  bool   `yaml:"biased"`
}

type Sentiment struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

type Conversation struct {
	Greetings     []string `yaml:"greetings"`
	QuestionWords []string `yaml:"question_words"`
	CommonWords   []string `yaml:"common_words"`
}

// Default returns a fresh copy of the built-in lexicon.
func Default() *Lexicon {
	lx, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("lexicon: embedded default is invalid: %v", err))
	}
	return lx
}

// DefaultYAML returns the embedded lexicon document.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}

// Parse decodes and validates a complete lexicon document.
func Parse(data []byte) (*Lexicon, error) {
	lx := &Lexicon{}
	if err := yaml.Unmarshal(data, lx); err != nil {
		return nil, domain.ConfigError("parse lexicon", err)
	}
	if err := lx.Validate(); err != nil {
		return nil, err
	}
	return lx, nil
}

// Load starts from the built-in lexicon and overlays the sections present in
// the file at path. An empty path yields the built-in lexicon.
func Load(path string) (*Lexicon, error) {
	lx := Default()
	if path == "" {
		return lx, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ConfigError("read lexicon file", err)
	}

	// Top-level sections present in the override replace the defaults.
	var override Lexicon
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, domain.ConfigError("parse lexicon file", err)
	}
	lx.merge(&override)

	if err := lx.Validate(); err != nil {
		return nil, err
	}
	return lx, nil
}

func (lx *Lexicon) merge(o *Lexicon) {
	if len(o.Intents) > 0 {
		lx.Intents = o.Intents
	}
	if len(o.Boosts) > 0 {
		lx.Boosts = o.Boosts
	}
	mergeList(&lx.Entities.Skills, o.Entities.Skills)
	mergeList(&lx.Entities.Locations, o.Entities.Locations)
	mergeList(&lx.Entities.Times, o.Entities.Times)
	mergeList(&lx.Entities.Roles, o.Entities.Roles)
	mergeList(&lx.Entities.Industries, o.Entities.Industries)
	mergeList(&lx.Entities.JobTypes, o.Entities.JobTypes)
	if len(o.Bias.Terms) > 0 {
		lx.Bias.Terms = o.Bias.Terms
	}
	if len(o.Bias.Phrases) > 0 {
		lx.Bias.Phrases = o.Bias.Phrases
	}
	if len(o.Bias.Stereotypes) > 0 {
		lx.Bias.Stereotypes = o.Bias.Stereotypes
	}
	if len(o.Knowledge) > 0 {
		lx.Knowledge = o.Knowledge
	}
	mergeList(&lx.Sentiment.Positive, o.Sentiment.Positive)
	mergeList(&lx.Sentiment.Negative, o.Sentiment.Negative)
	mergeList(&lx.Conversation.Greetings, o.Conversation.Greetings)
	mergeList(&lx.Conversation.QuestionWords, o.Conversation.QuestionWords)
	mergeList(&lx.Conversation.CommonWords, o.Conversation.CommonWords)
	mergeList(&lx.EventTimeTerms, o.EventTimeTerms)
}

func mergeList(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

// Validate checks that every table the pipeline depends on is usable.
func (lx *Lexicon) Validate() error {
	var errs []error

	seen := make(map[domain.Intent]bool, len(domain.Intents))
	for i, ik := range lx.Intents {
		switch {
		case !ik.Category.Valid():
			errs = append(errs, fmt.Errorf("intents[%d]: unknown category %q", i, ik.Category))
		case seen[ik.Category]:
			errs = append(errs, fmt.Errorf("intents[%d]: duplicate category %q", i, ik.Category))
		case len(ik.Keywords) == 0:
			errs = append(errs, fmt.Errorf("intents[%d]: category %q has no keywords", i, ik.Category))
		}
		seen[ik.Category] = true
	}
	for _, intent := range domain.Intents {
		if !seen[intent] {
			errs = append(errs, fmt.Errorf("intents: missing category %q", intent))
		}
	}

	for i, b := range lx.Boosts {
		if !b.Category.Valid() {
			errs = append(errs, fmt.Errorf("boosts[%d]: unknown category %q", i, b.Category))
		}
		if b.Boost <= 0 {
			errs = append(errs, fmt.Errorf("boosts[%d]: boost must be positive", i))
		}
		if len(b.AllOf) == 0 {
			errs = append(errs, fmt.Errorf("boosts[%d]: all_of is empty", i))
		}
		for j, group := range b.AllOf {
			if len(group) == 0 {
				errs = append(errs, fmt.Errorf("boosts[%d].all_of[%d]: empty group", i, j))
			}
		}
	}

	for i, tg := range lx.Bias.Terms {
		if len(tg.Biased) == 0 || strings.TrimSpace(tg.Neutral) == "" {
			errs = append(errs, fmt.Errorf("bias.terms[%d]: biased and neutral are required", i))
		}
	}
	for i, p := range lx.Bias.Phrases {
		if strings.TrimSpace(p.Phrase) == "" || strings.TrimSpace(p.Neutral) == "" {
			errs = append(errs, fmt.Errorf("bias.phrases[%d]: phrase and neutral are required", i))
		}
	}
	for i, s := range lx.Bias.Stereotypes {
		if _, err := regexp.Compile("(?i)" + s.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("bias.stereotypes[%d]: %w", i, err))
		}
	}

	ids := make(map[string]bool, len(lx.Knowledge))
	for i, c := range lx.Knowledge {
		if err := ValidateChunk(c); err != nil {
			errs = append(errs, fmt.Errorf("knowledge[%d]: %w", i, err))
		}
		if ids[c.ID] {
			errs = append(errs, fmt.Errorf("knowledge[%d]: duplicate id %q", i, c.ID))
		}
		ids[c.ID] = true
	}

	if len(errs) > 0 {
		return domain.ConfigError("validate lexicon", errors.Join(errs...))
	}
	return nil
}

// ValidateChunk reports whether a knowledge chunk carries the fields
// retrieval needs.
func ValidateChunk(c domain.KnowledgeChunk) error {
	if strings.TrimSpace(c.ID) == "" {
		return domain.ValidationError("knowledge chunk id is required", nil)
	}
	if strings.TrimSpace(c.Topic) == "" || strings.TrimSpace(c.Content) == "" {
		return domain.ValidationError(fmt.Sprintf("knowledge chunk %q requires topic and content", c.ID), nil)
	}
	return nil
}

// Keywords returns the keyword list for one category, or nil.
func (lx *Lexicon) Keywords(intent domain.Intent) []string {
	for _, ik := range lx.Intents {
		if ik.Category == intent {
			return ik.Keywords
		}
	}
	return nil
}

// Marshal renders the lexicon as YAML.
func (lx *Lexicon) Marshal() ([]byte, error) {
	return yaml.Marshal(lx)
}
