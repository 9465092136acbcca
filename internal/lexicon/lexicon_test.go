package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/asha/internal/domain"
)

func TestDefault(t *testing.T) {
	lx := Default()

	require.Len(t, lx.Intents, len(domain.Intents))
	for i, intent := range domain.Intents {
		assert.Equal(t, intent, lx.Intents[i].Category, "category order")
	}

	assert.Len(t, lx.Boosts, 4)
	assert.Len(t, lx.Bias.Terms, 15)
	assert.Len(t, lx.Bias.Phrases, 7)
	assert.Len(t, lx.Bias.Stereotypes, 8)
	assert.Len(t, lx.Knowledge, 10)
	assert.Equal(t, "kb-001", lx.Knowledge[0].ID)
	assert.Equal(t, "kb-010", lx.Knowledge[9].ID)
	assert.Equal(t, []string{"full-time", "part-time", "contract", "remote", "hybrid", "internship"}, lx.Entities.JobTypes)
	assert.Contains(t, lx.Keywords(domain.IntentHelp), "can you")
}

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	a := Default()
	a.Intents[0].Keywords[0] = "mutated"

	b := Default()
	assert.Equal(t, "job", b.Intents[0].Keywords[0])
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	lx, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), lx)
}

func TestLoad_OverridesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	override := `
entities:
  skills: [golang, kubernetes]
event_time_terms: [tonight]
`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o644))

	lx, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"golang", "kubernetes"}, lx.Entities.Skills)
	assert.Equal(t, []string{"tonight"}, lx.EventTimeTerms)
	// untouched sections keep their defaults
	assert.Equal(t, Default().Entities.Locations, lx.Entities.Locations)
	assert.Len(t, lx.Knowledge, 10)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "intents: [:"},
		{"bad stereotype", "bias:\n  stereotypes:\n    - pattern: \"women(\"\n      biased: true\n"},
		{"duplicate chunk", "knowledge:\n  - {id: a, topic: t, content: c}\n  - {id: a, topic: t, content: c}\n"},
		{"chunk without content", "knowledge:\n  - {id: a, topic: t}\n"},
		{"unknown intent", "intents:\n  - {category: gossip, keywords: [tea]}\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeConfig), "got %v", err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
	})
}

func TestValidateChunk(t *testing.T) {
	assert.NoError(t, ValidateChunk(domain.KnowledgeChunk{ID: "x", Topic: "t", Content: "c"}))

	err := ValidateChunk(domain.KnowledgeChunk{ID: "x", Content: "c"})
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	err = ValidateChunk(domain.KnowledgeChunk{Topic: "t", Content: "c"})
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestMarshal_RoundTrips(t *testing.T) {
	lx := Default()
	data, err := lx.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, lx, parsed)
}
