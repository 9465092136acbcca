package bias

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/asha/internal/lexicon"
	"github.com/spherical-ai/asha/internal/observability"
)

func TestDetector_Detect(t *testing.T) {
	detector := NewDetector(lexicon.Default(), nil)

	tests := []struct {
		name      string
		text      string
		corrected string
		details   []Detail
	}{
		{
			name:      "terms",
			text:      "We need a chairman and more manpower",
			corrected: "We need a chairperson and more workforce",
			details: []Detail{
				{Type: TypeBiasedTerm, Biased: "chairman", Neutral: "chairperson"},
				{Type: TypeBiasedTerm, Biased: "manpower", Neutral: "workforce"},
			},
		},
		{
			name:      "case insensitive with literal replacement",
			text:      "Ask the Firemen and POLICEMEN",
			corrected: "Ask the firefighter and police officer",
			details: []Detail{
				{Type: TypeBiasedTerm, Biased: "firemen", Neutral: "firefighter"},
				{Type: TypeBiasedTerm, Biased: "policemen", Neutral: "police officer"},
			},
		},
		{
			name:      "phrase",
			text:      "women are better at multitasking",
			corrected: "some people are better at multitasking",
			details: []Detail{
				{Type: TypeBiasedPhrase, Biased: "women are better at", Neutral: "some people are better at"},
			},
		},
		{
			name:      "stereotype is flagged, not rewritten",
			text:      "Do women like to cook?",
			corrected: "Do women like to cook?",
			details: []Detail{
				{Type: TypeStereotypicalAssumption, Pattern: "/women.*cook/i"},
			},
		},
		{
			name:      "stages run in order",
			text:      "The chairman said men are more technical",
			corrected: "The chairperson said men are more technical",
			details: []Detail{
				{Type: TypeBiasedTerm, Biased: "chairman", Neutral: "chairperson"},
				{Type: TypeStereotypicalAssumption, Pattern: "/men.*technical/i"},
			},
		},
		{
			name:      "whole words only",
			text:      "An unmanned drone and the chairmanship",
			corrected: "An unmanned drone and the chairmanship",
		},
		{
			name:      "clean",
			text:      "Show me data science jobs",
			corrected: "Show me data science jobs",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := detector.Detect(tc.text)
			assert.Equal(t, tc.corrected, res.CorrectedText)
			assert.Equal(t, tc.details, res.Details)
			assert.Equal(t, len(tc.details) > 0, res.HasBias)
		})
	}
}

func TestDetector_Empty(t *testing.T) {
	detector := NewDetector(lexicon.Default(), nil)

	res := detector.Detect("")
	assert.False(t, res.HasBias)
	assert.Equal(t, "", res.CorrectedText)
	assert.Nil(t, res.Details)
}

func TestDetector_IdempotentRewrite(t *testing.T) {
	detector := NewDetector(lexicon.Default(), nil)

	inputs := []string{
		"The salesmen and the spokesman met the housewives",
		"girls in the office said he will be the one to decide",
		"our cameraman logged man hours",
	}
	for _, in := range inputs {
		first := detector.Detect(in)
		require.True(t, first.HasBias, in)

		second := detector.Detect(first.CorrectedText)
		assert.Equal(t, first.CorrectedText, second.CorrectedText)
		for _, d := range second.Details {
			assert.Equal(t, TypeStereotypicalAssumption, d.Type, "rewrite left a term or phrase behind: %q", first.CorrectedText)
		}
	}
}

func TestMitigationInstructions(t *testing.T) {
	assert.Empty(t, MitigationInstructions(nil))

	got := MitigationInstructions([]Detail{{Type: TypeBiasedTerm}})
	assert.Equal(t, "Note: The user query contains potentially biased language. Please ensure your response:\n"+
		"- Uses gender-neutral language\n"+
		"- Avoids reinforcing gender stereotypes\n"+
		"- Focuses on skills, qualifications, and experiences rather than gender\n"+
		"- Provides balanced information applicable to all genders", got)
}

func TestDetector_AnalyzeResponse(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{Level: "debug", Format: "json", Output: &buf})
	detector := NewDetector(lexicon.Default(), logger)

	res := detector.AnalyzeResponse(context.Background(), "Talk to our chairman")
	assert.True(t, res.HasBias)
	assert.Contains(t, buf.String(), "bias detected in assistant response")

	buf.Reset()
	detector.AnalyzeResponse(context.Background(), "Talk to our team")
	assert.Zero(t, buf.Len())
}

func TestSummary(t *testing.T) {
	got := Summary([]Detail{
		{Type: TypeBiasedTerm, Biased: "chairman", Neutral: "chairperson"},
		{Type: TypeStereotypicalAssumption, Pattern: "/women.*cook/i"},
	})
	assert.Equal(t, "chairman -> chairperson\nstereotype /women.*cook/i", got)
}
