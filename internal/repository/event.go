package repository

import (
	"context"

	"orma/internal/cache"
	"orma/internal/models"

	"gorm.io/gorm"
)

// EventRepository defines persistence operations for events.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByHash(ctx context.Context, hash string) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	UpdatePricingTier(ctx context.Context, hash string, tierID uint) error
	ListByUser(ctx context.Context, userID uint) ([]models.Event, error)
	ListByHashes(ctx context.Context, hashes []string) ([]models.Event, error)
}

type eventRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewEventRepository returns an EventRepository. Lookups by hash are cached when
// store holds a Redis client.
func NewEventRepository(db *gorm.DB, store *cache.Store) EventRepository {
	return &eventRepository{db: db, cache: store}
}

// Create inserts event. A hash collision surfaces as a unique violation the caller
// can detect with database.IsUniqueViolation.
func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return dbError(r.db.WithContext(ctx).Create(event).Error)
}

func (r *eventRepository) GetByHash(ctx context.Context, hash string) (*models.Event, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var event models.Event
	err := r.cache.Aside(ctx, cache.EventKey(hash), &event, cache.EventTTL, func() error {
		return r.db.WithContext(ctx).
			Preload("PricingTier").
			Where("event_hash = ?", hash).
			First(&event).Error
	})
	if err != nil {
		return nil, notFoundOr(err, "Event", hash)
	}
	return &event, nil
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Model(event).
		Select("name", "event_date", "banner_url", "profile_image_url", "updated_at").
		Updates(event).Error
	if err != nil {
		return dbError(err)
	}
	// The timeslot listing is bounded by event_date.
	r.cache.Invalidate(ctx, cache.EventKey(event.EventHash), cache.TimeslotsKey(event.EventHash))
	return nil
}

// UpdatePricingTier moves the event to tierID and drops the cached record, which
// embeds the previous tier.
func (r *eventRepository) UpdatePricingTier(ctx context.Context, hash string, tierID uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("event_hash = ?", hash).
		Update("pricing_tier_id", tierID)
	if res.Error != nil {
		return dbError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Event", hash)
	}
	r.cache.InvalidateEvent(ctx, hash)
	return nil
}

func (r *eventRepository) ListByUser(ctx context.Context, userID uint) ([]models.Event, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("event_date DESC").
		Find(&events).Error
	return events, dbError(err)
}

// ListByHashes returns the events for hashes in no particular order.
func (r *eventRepository) ListByHashes(ctx context.Context, hashes []string) ([]models.Event, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var events []models.Event
	err := r.db.WithContext(ctx).Where("event_hash IN ?", hashes).Find(&events).Error
	return events, dbError(err)
}
