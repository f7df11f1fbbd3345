package repository

import (
	"context"
	"time"

	"orma/internal/cache"
	"orma/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedRow is a feed entry joined with its score.
type FeedRow struct {
	PostID     uint
	Timeslot   time.Time
	CategoryID uint
	EventHash  string
	Score      float64
}

// FeedRepository persists feed entries and post scores and answers feed queries.
type FeedRepository interface {
	InsertEntryWithScore(ctx context.Context, entry *models.FeedEntry, score float64) error
	UpsertScore(ctx context.Context, postID uint, score float64) error
	Reclassify(ctx context.Context, postID, categoryID uint, score float64) error
	GetEntry(ctx context.Context, postID uint) (*models.FeedEntry, error)
	DistinctTimeslots(ctx context.Context, eventHash string, after time.Time) ([]time.Time, error)
	TimeslotPage(ctx context.Context, eventHash string, timeslot time.Time, limit, offset int) ([]FeedRow, error)
	CountInTimeslot(ctx context.Context, eventHash string, timeslot time.Time) (int64, error)
}

type feedRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewFeedRepository returns a FeedRepository. The timeslot index of an event is
// cached in store and dropped on every write touching that event.
func NewFeedRepository(db *gorm.DB, store *cache.Store) FeedRepository {
	return &feedRepository{db: db, cache: store}
}

func upsertScore(tx *gorm.DB, postID uint, score float64) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(&models.PostScore{PostID: postID, Score: score}).Error
}

// InsertEntryWithScore writes the feed entry and its score in one transaction.
// Both statements are upserts keyed by post_id, so a retry converges.
func (r *feedRepository) InsertEntryWithScore(ctx context.Context, entry *models.FeedEntry, score float64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"timeslot", "category_id", "event_hash"}),
		}).Create(entry).Error; err != nil {
			return err
		}
		return upsertScore(tx, entry.PostID, score)
	})
	if err != nil {
		return dbError(err)
	}
	r.cache.InvalidateTimeslots(ctx, entry.EventHash)
	return nil
}

func (r *feedRepository) UpsertScore(ctx context.Context, postID uint, score float64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return dbError(upsertScore(r.db.WithContext(ctx), postID, score))
}

// Reclassify moves a feed entry to another category and rewrites its score in one
// transaction. A post without a feed entry is NOT_FOUND and nothing is written.
func (r *feedRepository) Reclassify(ctx context.Context, postID, categoryID uint, score float64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var eventHash string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.FeedEntry
		if err := tx.Where("post_id = ?", postID).First(&entry).Error; err != nil {
			return err
		}
		eventHash = entry.EventHash
		if err := tx.Model(&models.FeedEntry{}).
			Where("post_id = ?", postID).
			Update("category_id", categoryID).Error; err != nil {
			return err
		}
		return upsertScore(tx, postID, score)
	})
	if err != nil {
		return notFoundOr(err, "Feed entry", postID)
	}
	r.cache.InvalidateTimeslots(ctx, eventHash)
	return nil
}

func (r *feedRepository) GetEntry(ctx context.Context, postID uint) (*models.FeedEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var entry models.FeedEntry
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).First(&entry).Error; err != nil {
		return nil, notFoundOr(err, "Feed entry", postID)
	}
	return &entry, nil
}

// DistinctTimeslots lists the event's timeslots strictly after the given instant,
// ascending. The listing is cached per event.
func (r *feedRepository) DistinctTimeslots(ctx context.Context, eventHash string, after time.Time) ([]time.Time, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var slots []time.Time
	err := r.cache.Aside(ctx, cache.TimeslotsKey(eventHash), &slots, cache.TimeslotsTTL, func() error {
		return r.db.WithContext(ctx).
			Model(&models.FeedEntry{}).
			Distinct("timeslot").
			Where("event_hash = ? AND timeslot > ?", eventHash, after.UTC()).
			Order("timeslot ASC").
			Pluck("timeslot", &slots).Error
	})
	if err != nil {
		return nil, dbError(err)
	}
	for i := range slots {
		slots[i] = slots[i].UTC()
	}
	return slots, nil
}

// TimeslotPage returns completed posts of one timeslot ranked by score, highest
// first, ties broken by newest post id. Missing scores rank as 0.
func (r *feedRepository) TimeslotPage(ctx context.Context, eventHash string, timeslot time.Time, limit, offset int) ([]FeedRow, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var rows []FeedRow
	err := r.db.WithContext(ctx).
		Table("feed_entries").
		Select("feed_entries.post_id, feed_entries.timeslot, feed_entries.category_id, feed_entries.event_hash, COALESCE(post_scores.score, 0) AS score").
		Joins("JOIN posts ON posts.id = feed_entries.post_id").
		Joins("LEFT JOIN post_scores ON post_scores.post_id = feed_entries.post_id").
		Where("feed_entries.event_hash = ? AND feed_entries.timeslot = ? AND posts.status = ?",
			eventHash, timeslot.UTC(), models.PostStatusCompleted).
		Order("score DESC, feed_entries.post_id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, dbError(err)
	}
	for i := range rows {
		rows[i].Timeslot = rows[i].Timeslot.UTC()
	}
	return rows, nil
}

func (r *feedRepository) CountInTimeslot(ctx context.Context, eventHash string, timeslot time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FeedEntry{}).
		Where("event_hash = ? AND timeslot = ?", eventHash, timeslot.UTC()).
		Count(&count).Error
	return count, dbError(err)
}
