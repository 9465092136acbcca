package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/asha/internal/domain"
)

// ApplicationRepository stores job and mentorship applications and event
// registrations.
type ApplicationRepository struct {
	db DB
}

func NewApplicationRepository(db DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create validates the application, assigns a prefixed id and stores it.
func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	if app == nil {
		return domain.ValidationError("application is required", nil)
	}
	if err := app.Validate(); err != nil {
		return err
	}
	app.ID = app.IDPrefix() + uuid.NewString()
	app.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO applications (id, variant, item_id, session_id, name, email,
			resume, cover_letter, motivation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		app.ID, string(app.Variant), app.ItemID, app.SessionID, app.Name, app.Email,
		app.Resume, app.CoverLetter, app.Motivation, app.CreatedAt,
	)
	if err != nil {
		return domain.StorageError("create application", err)
	}
	return nil
}

// Get retrieves an application by id.
func (r *ApplicationRepository) Get(ctx context.Context, id string) (*domain.Application, error) {
	query := `
		SELECT id, variant, item_id, session_id, name, email, resume, cover_letter, motivation, created_at
		FROM applications WHERE id = $1
	`
	app := &domain.Application{}
	var variant string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&app.ID, &variant, &app.ItemID, &app.SessionID, &app.Name, &app.Email,
		&app.Resume, &app.CoverLetter, &app.Motivation, &app.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError("application "+id, ErrNotFound)
	}
	if err != nil {
		return nil, domain.StorageError("get application", err)
	}
	app.Variant = domain.Variant(variant)
	return app, nil
}
