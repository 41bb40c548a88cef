// Package catalog defines the persistence interface for the place metadata table.
package catalog

import (
	"context"

	"github.com/vibelabs/vibesearch/internal/models"
)

// Catalog defines place and review persistence operations.
type Catalog interface {
	// Place operations
	UpsertPlace(ctx context.Context, place *models.Place) error
	GetPlace(ctx context.Context, placeID string) (*models.Place, error)
	// GetPlaces returns the places for the given ids, keyed by place_id.
	// Missing ids are simply absent from the map.
	GetPlaces(ctx context.Context, placeIDs []string) (map[string]*models.Place, error)
	ListPlaces(ctx context.Context, offset, limit int) ([]*models.Place, error)
	DeletePlace(ctx context.Context, placeID string) error

	// Review operations
	AddReviews(ctx context.Context, placeID string, reviews []string) error
	GetReviews(ctx context.Context, placeID string, limit int) ([]string, error)

	// Batch operations
	BatchUpsertPlaces(ctx context.Context, places []*models.Place) error

	// Stats
	CountPlaces(ctx context.Context) (int64, error)
	CountReviews(ctx context.Context) (int64, error)

	Close() error
}
