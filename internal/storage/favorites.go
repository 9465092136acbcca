package storage

import (
	"context"
	"time"

	"github.com/spherical-ai/asha/internal/domain"
)

// FavoriteRepository stores candidates a session bookmarked.
type FavoriteRepository struct {
	db DB
}

func NewFavoriteRepository(db DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Save bookmarks an item. Saving the same item twice is a no-op.
func (r *FavoriteRepository) Save(ctx context.Context, sessionID string, variant domain.Variant, itemID string) error {
	if sessionID == "" || itemID == "" {
		return domain.ValidationError("session id and item id are required", nil)
	}
	query := `
		INSERT INTO favorites (session_id, variant, item_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, variant, item_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID, string(variant), itemID, time.Now().UTC()); err != nil {
		return domain.StorageError("save favorite", err)
	}
	return nil
}

// List returns the favorites of a session in the order they were saved. An
// empty variant lists every variant.
func (r *FavoriteRepository) List(ctx context.Context, sessionID string, variant domain.Variant) ([]domain.Favorite, error) {
	query := `
		SELECT session_id, variant, item_id, created_at
		FROM favorites
		WHERE session_id = $1 AND ($2 = '' OR variant = $2)
		ORDER BY created_at, item_id
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID, string(variant))
	if err != nil {
		return nil, domain.StorageError("list favorites", err)
	}
	defer rows.Close()

	var out []domain.Favorite
	for rows.Next() {
		var f domain.Favorite
		var v string
		if err := rows.Scan(&f.SessionID, &v, &f.ItemID, &f.CreatedAt); err != nil {
			return nil, domain.StorageError("scan favorite", err)
		}
		f.Variant = domain.Variant(v)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list favorites", err)
	}
	return out, nil
}

// Remove deletes a bookmark, returning a not-found error when none existed.
func (r *FavoriteRepository) Remove(ctx context.Context, sessionID string, variant domain.Variant, itemID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE session_id = $1 AND variant = $2 AND item_id = $3",
		sessionID, string(variant), itemID,
	)
	if err != nil {
		return domain.StorageError("remove favorite", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("remove favorite", err)
	}
	if n == 0 {
		return domain.NotFoundError("favorite "+itemID, ErrNotFound)
	}
	return nil
}
