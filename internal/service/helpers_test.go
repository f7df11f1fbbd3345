package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"orma/internal/cache"
	"orma/internal/database"
	"orma/internal/featureflags"
	"orma/internal/feed"
	"orma/internal/models"
	"orma/internal/notifications"
	"orma/internal/queue"
	"orma/internal/testutil"
	"orma/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testEventDate = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// objectStoreStub records Put calls and fails when err is set.
type objectStoreStub struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (s *objectStoreStub) Put(_ context.Context, key, _ string, _ []byte) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return nil
}

func (s *objectStoreStub) PresignGet(_ context.Context, key string) (string, error) {
	return "https://signed.example.com/" + key + "?sig=1", nil
}

// publisherStub records published jobs and fails when err is set.
type publisherStub struct {
	mu        sync.Mutex
	msgs      []queue.Message
	err       error
	onPublish func(msg queue.Message)
}

func (p *publisherStub) Publish(_ context.Context, msg queue.Message) error {
	if p.onPublish != nil {
		p.onPublish(msg)
	}
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

// smsStub captures the last message body.
type smsStub struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *smsStub) Send(_ context.Context, _ string, body string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, body)
	return nil
}

type fixture struct {
	db       *gorm.DB
	store    *objectStoreStub
	jobs     *publisherStub
	pay      *testutil.PaymentStub
	assets   feed.Assets
	owner    *models.User
	guest    *models.User
	event    *models.Event
	tier     *models.PricingTier
	events   repository.EventRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	feedRepo repository.FeedRepository
	catalog  repository.CatalogRepository
	users    repository.UserRepository
	eventSvc *EventService
}

func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

// setupFixture seeds an owner, a guest, a free tier of one guest (20 photos),
// two categories and one event dated testEventDate.
func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)

	owner := &models.User{Phone: "15550001", Name: "Host"}
	guest := &models.User{Phone: "15550002", Name: "Guest"}
	require.NoError(t, db.Create(owner).Error)
	require.NoError(t, db.Create(guest).Error)

	tier := &models.PricingTier{Name: "Free", Cost: models.FreeTierCost, GuestCount: 1}
	require.NoError(t, db.Create(tier).Error)
	require.NoError(t, db.Create(&models.Category{ID: 1, Name: "Cake Cutting", Score: 5}).Error)
	require.NoError(t, db.Create(&models.Category{ID: 2, Name: "First Dance", Score: 8}).Error)

	event := &models.Event{
		EventHash:     "evt",
		Name:          "Wedding",
		UserID:        owner.ID,
		EventDate:     testEventDate,
		PricingTierID: tier.ID,
	}
	require.NoError(t, db.Create(event).Error)

	f := &fixture{
		db:       db,
		store:    &objectStoreStub{},
		jobs:     &publisherStub{},
		pay:      &testutil.PaymentStub{},
		assets:   feed.NewAssets("https://cdn.example.com/"),
		owner:    owner,
		guest:    guest,
		event:    event,
		tier:     tier,
		events:   repository.NewEventRepository(db, nil),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		feedRepo: repository.NewFeedRepository(db, nil),
		catalog:  repository.NewCatalogRepository(db),
		users:    repository.NewUserRepository(db),
	}
	f.eventSvc = NewEventService(f.events, f.users, f.catalog, f.posts, f.store, f.jobs, f.pay, f.assets)
	f.eventSvc.now = func() time.Time { return testEventDate.Add(2 * time.Hour) }
	return f
}

func (f *fixture) uploadService(flags string) *UploadService {
	writer := feed.NewWriter(f.feedRepo, feed.NewScorer(f.catalog))
	return NewUploadService(f.eventSvc, f.posts, f.store, f.jobs, writer, f.assets, featureflags.NewManager(flags))
}

func (f *fixture) postService(notifier *notifications.Notifier) *PostService {
	return NewPostService(f.posts, f.comments, f.events, cache.NewStore(nil), notifier, f.assets)
}

func (f *fixture) seedPost(t *testing.T, userID uint, status models.PostStatus, captured time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		EventHash:  f.event.EventHash,
		UserID:     userID,
		UploadURL:  "evt/photo.jpg",
		CapturedAt: captured.UTC(),
		Status:     status,
		CategoryID: 1,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}
