package domain

import "context"

// Candidate is a rankable domain object. Job, Event and Mentorship implement it.
type Candidate interface {
	CandidateID() string
	Variant() Variant

	// Validate reports a *MalformedCandidateError when a required field is missing
	Validate() error
}

// HistoryStore persists and recalls conversation turns
type HistoryStore interface {
	Append(ctx context.Context, turn *ConversationTurn) error
	Recent(ctx context.Context, sessionID string, limit int) ([]ConversationTurn, error)
}

// EventTracker records analytics events
type EventTracker interface {
	Track(ctx context.Context, name string, props map[string]interface{})
}
