package feed

import (
	"context"
	"log/slog"

	"orma/internal/middleware"
	"orma/internal/models"
)

// CategoryLookup resolves a category by id.
type CategoryLookup interface {
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
}

// Scorer turns a category into the initial score of a post.
type Scorer struct {
	categories CategoryLookup
}

// NewScorer returns a Scorer backed by categories.
func NewScorer(categories CategoryLookup) *Scorer {
	return &Scorer{categories: categories}
}

// Score returns the weight of categoryID. Unknown categories, id 0 and lookup
// failures all score 0; the write path never fails on scoring.
func (s *Scorer) Score(ctx context.Context, categoryID uint) float64 {
	if categoryID == 0 || s.categories == nil {
		return 0
	}
	category, err := s.categories.GetCategory(ctx, categoryID)
	if err != nil {
		if !models.IsCode(err, models.CodeNotFound) {
			middleware.Logger.WarnContext(ctx, "category lookup failed, scoring 0",
				slog.Uint64("category_id", uint64(categoryID)),
				slog.String("error", err.Error()),
			)
		}
		return 0
	}
	return category.Score
}
