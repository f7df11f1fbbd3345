package feed

import (
	"context"
	"time"

	"orma/internal/models"
	"orma/internal/repository"
)

const (
	// TimeslotPageSize is the number of posts per timeslot page.
	TimeslotPageSize = 6
	// MemoriesPageSize is the number of posts per memories page.
	MemoriesPageSize = 10
	// FullTimeslotSize is the entry count at which a timeslot counts as full.
	FullTimeslotSize = 4
)

// EventLookup resolves events by hash.
type EventLookup interface {
	GetByHash(ctx context.Context, hash string) (*models.Event, error)
}

// FeedQuery answers timeline queries.
type FeedQuery interface {
	DistinctTimeslots(ctx context.Context, eventHash string, after time.Time) ([]time.Time, error)
	TimeslotPage(ctx context.Context, eventHash string, timeslot time.Time, limit, offset int) ([]repository.FeedRow, error)
	CountInTimeslot(ctx context.Context, eventHash string, timeslot time.Time) (int64, error)
}

// PostQuery loads decorated posts.
type PostQuery interface {
	GetByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	ListCapturedBefore(ctx context.Context, eventHash string, before time.Time, limit, offset int) ([]models.Post, error)
}

// Reader pages through an event's timeline and memories.
type Reader struct {
	events EventLookup
	feed   FeedQuery
	posts  PostQuery
	assets Assets
}

// NewReader returns a Reader.
func NewReader(events EventLookup, feed FeedQuery, posts PostQuery, assets Assets) *Reader {
	return &Reader{events: events, feed: feed, posts: posts, assets: assets}
}

// Timeslots lists the event's timeslots after its start, ascending.
func (r *Reader) Timeslots(ctx context.Context, eventHash string) ([]time.Time, error) {
	event, err := r.events.GetByHash(ctx, eventHash)
	if err != nil {
		return nil, err
	}
	return r.feed.DistinctTimeslots(ctx, eventHash, event.EventDate)
}

// Index returns the timeslot listing together with whether the latest slot is full.
func (r *Reader) Index(ctx context.Context, eventHash string) (*models.FeedIndex, error) {
	slots, err := r.Timeslots(ctx, eventHash)
	if err != nil {
		return nil, err
	}
	full, err := r.latestFull(ctx, eventHash, slots)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []time.Time{}
	}
	return &models.FeedIndex{Timeslots: slots, LatestFull: full}, nil
}

// LatestTimeslotFull reports whether the most recent timeslot already holds
// FullTimeslotSize or more entries. An event without timeslots is never full.
func (r *Reader) LatestTimeslotFull(ctx context.Context, eventHash string) (bool, error) {
	slots, err := r.Timeslots(ctx, eventHash)
	if err != nil {
		return false, err
	}
	return r.latestFull(ctx, eventHash, slots)
}

func (r *Reader) latestFull(ctx context.Context, eventHash string, slots []time.Time) (bool, error) {
	if len(slots) == 0 {
		return false, nil
	}
	n, err := r.feed.CountInTimeslot(ctx, eventHash, slots[len(slots)-1])
	if err != nil {
		return false, err
	}
	return n >= FullTimeslotSize, nil
}

// TimeslotPage returns one page of completed posts in timeslot, highest score first.
// Pages start at 1; smaller values are treated as 1.
func (r *Reader) TimeslotPage(ctx context.Context, eventHash string, timeslot time.Time, page int) ([]models.FeedPageEntry, error) {
	if _, err := r.events.GetByHash(ctx, eventHash); err != nil {
		return nil, err
	}

	rows, err := r.feed.TimeslotPage(ctx, eventHash, timeslot, TimeslotPageSize, offsetFor(page, TimeslotPageSize))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []models.FeedPageEntry{}, nil
	}

	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.PostID
	}
	posts, err := r.posts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Post, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}

	entries := make([]models.FeedPageEntry, 0, len(rows))
	for _, row := range rows {
		post, ok := byID[row.PostID]
		if !ok {
			// Deleted between the two queries.
			continue
		}
		entries = append(entries, models.FeedPageEntry{
			PostID:     row.PostID,
			Timeslot:   row.Timeslot,
			CategoryID: row.CategoryID,
			EventHash:  row.EventHash,
			Score:      row.Score,
			Post:       r.assets.View(post),
		})
	}
	return entries, nil
}

// Memories returns completed posts captured before the event started, newest
// capture first.
func (r *Reader) Memories(ctx context.Context, eventHash string, page int) ([]models.MemoryEntry, error) {
	event, err := r.events.GetByHash(ctx, eventHash)
	if err != nil {
		return nil, err
	}

	posts, err := r.posts.ListCapturedBefore(ctx, eventHash, event.EventDate, MemoriesPageSize, offsetFor(page, MemoriesPageSize))
	if err != nil {
		return nil, err
	}

	entries := make([]models.MemoryEntry, len(posts))
	for i := range posts {
		entries[i] = models.MemoryEntry{AssetView: r.assets.View(&posts[i])}
	}
	return entries, nil
}

func offsetFor(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}
