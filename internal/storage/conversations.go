package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/asha/internal/domain"
)

// ConversationRepository stores chat turns. It implements domain.HistoryStore.
type ConversationRepository struct {
	db DB
}

func NewConversationRepository(db DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

var _ domain.HistoryStore = (*ConversationRepository)(nil)

// Append stores one turn, filling in a missing id or timestamp.
func (r *ConversationRepository) Append(ctx context.Context, turn *domain.ConversationTurn) error {
	if turn == nil || turn.SessionID == "" {
		return domain.ValidationError("session id is required", nil)
	}
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	query := `
		INSERT INTO conversation_turns (id, session_id, sender, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		turn.ID, turn.SessionID, string(turn.Sender), turn.Text, turn.Timestamp.UTC(),
	)
	if err != nil {
		return domain.StorageError("append conversation turn", err)
	}
	return nil
}

// Recent returns the last limit turns of a session, oldest first.
func (r *ConversationRepository) Recent(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT id, session_id, sender, text, created_at
		FROM conversation_turns
		WHERE session_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, domain.StorageError("load conversation", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		var t domain.ConversationTurn
		var sender string
		if err := rows.Scan(&t.ID, &t.SessionID, &sender, &t.Text, &t.Timestamp); err != nil {
			return nil, domain.StorageError("scan conversation turn", err)
		}
		t.Sender = domain.Sender(sender)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("load conversation", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// PurgeBefore deletes every turn older than cutoff and returns the count.
func (r *ConversationRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM conversation_turns WHERE created_at < $1", cutoff.UTC())
	if err != nil {
		return 0, domain.StorageError("purge conversations", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.StorageError("purge conversations", err)
	}
	return n, nil
}
