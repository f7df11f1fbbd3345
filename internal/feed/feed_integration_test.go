package feed

import (
	"context"
	"testing"
	"time"

	"orma/internal/database"
	"orma/internal/models"
	"orma/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db     *gorm.DB
	writer *Writer
	reader *Reader
	event  *models.Event
	user   *models.User
}

var eventDate = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	user := &models.User{Phone: "15550100", Name: "host"}
	require.NoError(t, db.Create(user).Error)
	event := &models.Event{EventHash: "evt", Name: "Wedding", UserID: user.ID, EventDate: eventDate}
	require.NoError(t, db.Create(event).Error)
	require.NoError(t, db.Create(&models.Category{ID: 1, Name: "Cake", Score: 5}).Error)

	feedRepo := repository.NewFeedRepository(db, nil)
	postRepo := repository.NewPostRepository(db)
	catalog := repository.NewCatalogRepository(db)

	return &fixture{
		db:     db,
		writer: NewWriter(feedRepo, NewScorer(catalog)),
		reader: NewReader(repository.NewEventRepository(db, nil), feedRepo, postRepo, NewAssets("https://cdn.example.com")),
		event:  event,
		user:   user,
	}
}

func (f *fixture) upload(t *testing.T, categoryID uint, captured time.Time, status models.PostStatus) *models.Post {
	t.Helper()
	p := &models.Post{
		EventHash:  f.event.EventHash,
		UserID:     f.user.ID,
		UploadURL:  "evt/photo.jpg",
		CapturedAt: captured.UTC(),
		Status:     status,
		CategoryID: categoryID,
	}
	require.NoError(t, f.db.Create(p).Error)
	require.NoError(t, f.writer.Record(context.Background(), Input{
		PostID: p.ID, CategoryID: categoryID, EventHash: p.EventHash, CapturedAt: captured,
	}))
	return p
}

func TestRecord_WeightBecomesScore(t *testing.T) {
	f := setupFixture(t)
	p := f.upload(t, 1, eventDate.Add(2*time.Hour+10*time.Minute), models.PostStatusCompleted)

	var entry models.FeedEntry
	require.NoError(t, f.db.First(&entry, "post_id = ?", p.ID).Error)
	assert.True(t, entry.Timeslot.Equal(eventDate.Add(2*time.Hour)))

	var score models.PostScore
	require.NoError(t, f.db.First(&score, "post_id = ?", p.ID).Error)
	assert.Equal(t, 5.0, score.Score)
}

func TestRecord_UnknownCategoryScoresZero(t *testing.T) {
	f := setupFixture(t)
	p := f.upload(t, 99, eventDate.Add(time.Hour), models.PostStatusCompleted)

	var entry models.FeedEntry
	require.NoError(t, f.db.First(&entry, "post_id = ?", p.ID).Error)
	assert.Equal(t, uint(99), entry.CategoryID)

	var score models.PostScore
	require.NoError(t, f.db.First(&score, "post_id = ?", p.ID).Error)
	assert.Zero(t, score.Score)
}

func TestReader_TimeslotsAfterEventDate(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.upload(t, 1, eventDate.Add(-3*time.Hour), models.PostStatusCompleted)
	f.upload(t, 1, eventDate.Add(10*time.Minute), models.PostStatusCompleted) // quantizes onto the event date
	f.upload(t, 1, eventDate.Add(95*time.Minute), models.PostStatusCompleted)
	f.upload(t, 1, eventDate.Add(70*time.Minute), models.PostStatusCompleted)

	slots, err := f.reader.Timeslots(ctx, "evt")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Equal(eventDate.Add(time.Hour)))
	assert.True(t, slots[1].Equal(eventDate.Add(2*time.Hour)))
	for _, s := range slots {
		assert.True(t, s.After(eventDate))
	}

	_, err = f.reader.Timeslots(ctx, "missing")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestReader_TimeslotPagination(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	slot := eventDate.Add(time.Hour)

	var ids []uint
	for i := 0; i < 8; i++ {
		ids = append(ids, f.upload(t, 1, slot, models.PostStatusCompleted).ID)
	}
	f.upload(t, 1, slot, models.PostStatusProcessing)

	first, err := f.reader.TimeslotPage(ctx, "evt", slot, 1)
	require.NoError(t, err)
	require.Len(t, first, TimeslotPageSize)
	// Equal scores fall back to newest post id first.
	assert.Equal(t, ids[7], first[0].PostID)
	assert.Equal(t, "https://cdn.example.com/uploads/evt/photo.jpg", first[0].Post.ImageURL)
	assert.Empty(t, first[0].Post.CompressedURL)
	assert.Equal(t, "host", first[0].Post.User.Name)
	for _, e := range first {
		assert.Equal(t, models.PostStatusCompleted, e.Post.Status)
	}

	second, err := f.reader.TimeslotPage(ctx, "evt", slot, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, ids[1], second[0].PostID)
	assert.Equal(t, ids[0], second[1].PostID)

	normalised, err := f.reader.TimeslotPage(ctx, "evt", slot, 0)
	require.NoError(t, err)
	assert.Equal(t, first[0].PostID, normalised[0].PostID)

	empty, err := f.reader.TimeslotPage(ctx, "evt", slot, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReader_LatestTimeslotFull(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	full, err := f.reader.LatestTimeslotFull(ctx, "evt")
	require.NoError(t, err)
	assert.False(t, full)

	early := eventDate.Add(time.Hour)
	late := eventDate.Add(2 * time.Hour)
	for i := 0; i < 5; i++ {
		f.upload(t, 1, early, models.PostStatusCompleted)
	}
	for i := 0; i < 3; i++ {
		f.upload(t, 1, late, models.PostStatusCompleted)
	}

	idx, err := f.reader.Index(ctx, "evt")
	require.NoError(t, err)
	assert.Len(t, idx.Timeslots, 2)
	assert.False(t, idx.LatestFull)

	f.upload(t, 1, late, models.PostStatusCompleted)
	full, err = f.reader.LatestTimeslotFull(ctx, "evt")
	require.NoError(t, err)
	assert.True(t, full)
}

func TestReader_Memories(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	var before []uint
	for i := 1; i <= 12; i++ {
		before = append(before, f.upload(t, 1, eventDate.Add(-time.Duration(i)*time.Hour), models.PostStatusCompleted).ID)
	}
	f.upload(t, 1, eventDate, models.PostStatusCompleted)
	f.upload(t, 1, eventDate.Add(time.Hour), models.PostStatusCompleted)
	f.upload(t, 1, eventDate.Add(-30*time.Minute), models.PostStatusFailedByNudity)

	page1, err := f.reader.Memories(ctx, "evt", 1)
	require.NoError(t, err)
	require.Len(t, page1, MemoriesPageSize)
	assert.Equal(t, before[0], page1[0].ID, "closest to the event first")
	for i := 1; i < len(page1); i++ {
		assert.True(t, page1[i-1].CapturedAt.After(page1[i].CapturedAt))
	}
	for _, m := range page1 {
		assert.True(t, m.CapturedAt.Before(eventDate))
	}

	page2, err := f.reader.Memories(ctx, "evt", 2)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
}

func TestAssets(t *testing.T) {
	a := NewAssets("https://cdn.example.com/orma")
	assert.Equal(t, "https://cdn.example.com/orma/uploads/h/x.jpg", a.ImageURL("h/x.jpg"))
	assert.Equal(t, "https://cdn.example.com/orma/small/x.webp", a.CompressedURL("small/x.webp"))
	assert.Empty(t, a.CompressedURL(""))
	assert.Equal(t, "https://cdn.example.com/orma/uploads/h/banner/b.webp", a.Absolute("/uploads/h/banner/b.webp"))
}
