package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/asha/internal/domain"
)

// FeedbackRepository stores reply ratings.
type FeedbackRepository struct {
	db DB
}

func NewFeedbackRepository(db DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create validates and stores a rating between 1 and 5.
func (r *FeedbackRepository) Create(ctx context.Context, fb *domain.Feedback) error {
	if fb == nil || fb.Rating < 1 || fb.Rating > 5 {
		return domain.ValidationError("rating must be between 1 and 5", nil)
	}
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	fb.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO feedback (id, session_id, message_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		fb.ID, fb.SessionID, fb.MessageID, fb.Rating, fb.Comment, fb.CreatedAt,
	)
	if err != nil {
		return domain.StorageError("create feedback", err)
	}
	return nil
}

// List returns the newest feedback first.
func (r *FeedbackRepository) List(ctx context.Context, limit int) ([]domain.Feedback, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, session_id, message_id, rating, comment, created_at
		FROM feedback
		ORDER BY created_at DESC, id
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, domain.StorageError("list feedback", err)
	}
	defer rows.Close()

	var out []domain.Feedback
	for rows.Next() {
		var fb domain.Feedback
		if err := rows.Scan(&fb.ID, &fb.SessionID, &fb.MessageID, &fb.Rating, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, domain.StorageError("scan feedback", err)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list feedback", err)
	}
	return out, nil
}
