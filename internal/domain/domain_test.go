package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"job", VariantJob, false},
		{" Jobs ", VariantJob, false},
		{"events", VariantEvent, false},
		{"MENTORSHIP", VariantMentorship, false},
		{"course", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseVariant(tc.in)
			if tc.wantErr {
				assert.True(t, IsType(err, ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCandidateValidate(t *testing.T) {
	tests := []struct {
		name  string
		c     Candidate
		id    string
		field string
	}{
		{"job without company", &Job{ID: "1", Title: "Engineer", Description: "d"}, "1", "company"},
		{"nil job", (*Job)(nil), "", "id"},
		{"event blank title", &Event{ID: "e", Title: "  ", Description: "d"}, "e", "title"},
		{"mentorship without focus", &Mentorship{ID: "m", Title: "t", Mentor: "x", Description: "d"}, "m", "focus"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.Validate()
			var mc *MalformedCandidateError
			require.True(t, errors.As(err, &mc))
			assert.Equal(t, tc.id, mc.ID)
			assert.Equal(t, tc.field, mc.Field)
			assert.Equal(t, tc.c.Variant(), mc.Variant)
		})
	}

	assert.NoError(t, (&Job{ID: "1", Title: "t", Company: "c", Description: "d"}).Validate())
}

func TestErrorTypes(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("load: %w", StorageError("append turn", base))

	assert.Equal(t, ErrorTypeStorage, TypeOf(err))
	assert.True(t, errors.Is(err, base))
	assert.Contains(t, err.Error(), "[storage] append turn: connection refused")
	assert.Equal(t, ErrorType(""), TypeOf(base))
	assert.False(t, IsType(nil, ErrorTypeStorage))

	mc := &MalformedCandidateError{Variant: VariantEvent, ID: "7", Field: "title"}
	assert.Equal(t, `[malformed_candidate] event candidate "7": missing title`, mc.Error())
	assert.Equal(t, ErrorTypeMalformedCandidate, TypeOf(fmt.Errorf("rank: %w", mc)))

	// a wrapping DomainError keeps its own type
	wrapped := ConfigError("validate catalog", errors.Join(mc))
	assert.Equal(t, ErrorTypeConfig, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeConfig))
	assert.False(t, IsType(wrapped, ErrorTypeMalformedCandidate))

	var got *MalformedCandidateError
	require.True(t, errors.As(wrapped, &got))
	assert.Equal(t, "7", got.ID)
}

func TestApplicationValidate(t *testing.T) {
	tests := []struct {
		name   string
		app    Application
		prefix string
		errMsg string
	}{
		{"job", Application{Variant: VariantJob, ItemID: "1", Resume: "cv"}, "app-", ""},
		{"job without resume", Application{Variant: VariantJob, ItemID: "1"}, "", "resume is required"},
		{"event", Application{Variant: VariantEvent, ItemID: "2", Name: "A", Email: "a@b.c"}, "reg-", ""},
		{"event without email", Application{Variant: VariantEvent, ItemID: "2", Name: "A"}, "", "name and email are required"},
		{"mentorship", Application{Variant: VariantMentorship, ItemID: "3", Name: "A", Email: "a@b.c", Motivation: "m"}, "app-m-", ""},
		{"mentorship without motivation", Application{Variant: VariantMentorship, ItemID: "3", Name: "A", Email: "a@b.c"}, "", "motivation"},
		{"unknown", Application{Variant: "course", ItemID: "4"}, "", "unknown application type"},
		{"missing item", Application{Variant: VariantJob, Resume: "cv"}, "", "item id is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.app.Validate()
			if tc.errMsg != "" {
				require.Error(t, err)
				assert.True(t, IsType(err, ErrorTypeValidation))
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.prefix, tc.app.IDPrefix())
		})
	}
}

func TestAttachmentUnmarshal(t *testing.T) {
	in := Attachment{Type: VariantEvent, Data: &Event{ID: "3", Title: "Resume Workshop", Description: "d", Virtual: true}}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Attachment
	require.NoError(t, json.Unmarshal(data, &out))
	ev, ok := out.Data.(*Event)
	require.True(t, ok)
	assert.Equal(t, "Resume Workshop", ev.Title)
	assert.True(t, ev.Virtual)

	err = json.Unmarshal([]byte(`{"type":"course","data":{}}`), &out)
	assert.Error(t, err)
}

func TestIntentValid(t *testing.T) {
	assert.True(t, IntentHelp.Valid())
	assert.False(t, Intent("weather").Valid())
	assert.True(t, NewEntitySets().IsEmpty())
	assert.False(t, EntitySets{Times: []string{"today"}}.IsEmpty())
}
