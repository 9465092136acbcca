package catalog

import (
	"context"

	"github.com/spherical-ai/asha/internal/domain"
)

// CheckApplication validates the applicant fields and confirms the target
// item exists in the catalog.
func CheckApplication(ctx context.Context, p Provider, app *domain.Application) error {
	if app == nil {
		return domain.ValidationError("application is required", nil)
	}
	if err := app.Validate(); err != nil {
		return err
	}

	var err error
	switch app.Variant {
	case domain.VariantJob:
		_, err = p.Job(ctx, app.ItemID)
	case domain.VariantEvent:
		_, err = p.Event(ctx, app.ItemID)
	case domain.VariantMentorship:
		_, err = p.Mentorship(ctx, app.ItemID)
	}
	return err
}
