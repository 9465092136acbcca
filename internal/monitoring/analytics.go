// Package monitoring provides analytics tracking and scheduled data retention.
package monitoring

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/asha/internal/cache"
	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/observability"
)

// AnalyticsChannel is the pub/sub channel analytics events are published on.
const AnalyticsChannel = "analytics"

const publishTimeout = 2 * time.Second

// AnalyticsEvent is the message published for every tracked event.
type AnalyticsEvent struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// EventTracker logs analytics events and, with a publisher, fans them out
// on AnalyticsChannel. Publish failures are logged and never reach the caller.
type EventTracker struct {
	logger    *observability.Logger
	publisher cache.Publisher
	now       func() time.Time
}

var _ domain.EventTracker = (*EventTracker)(nil)

// NewEventTracker creates a tracker. publisher may be nil.
func NewEventTracker(logger *observability.Logger, publisher cache.Publisher) *EventTracker {
	return &EventTracker{
		logger:    observability.OrNop(logger),
		publisher: publisher,
		now:       time.Now,
	}
}

func (t *EventTracker) Track(ctx context.Context, name string, props map[string]interface{}) {
	event := AnalyticsEvent{
		ID:         uuid.NewString(),
		Name:       name,
		Properties: props,
		OccurredAt: t.now().UTC(),
	}

	t.logger.WithContext(ctx).Info().
		Str("event_id", event.ID).
		Str("event", name).
		Interface("properties", props).
		Msg("Analytics event")

	if t.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := t.publisher.Publish(pubCtx, AnalyticsChannel, event); err != nil {
		t.logger.Warn().Err(err).Str("event", name).Msg("Failed to publish analytics event")
	}
}
