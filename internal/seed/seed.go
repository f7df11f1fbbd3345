package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orma/internal/feed"
	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configuration for the seeder
type Options struct {
	Guests int
	Posts  int
	// Span is how long after the event start the demo photos were taken.
	Span  time.Duration
	Clean bool
	// RandSeed makes runs reproducible; zero picks one from the clock.
	RandSeed int64
}

// Result reports what a Seed run created.
type Result struct {
	EventHash string
	OwnerID   uint
	Posts     int
}

// Seed loads the catalog and creates one demo event with guests, posts placed
// on the feed, comments and likes.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	if opts.Guests <= 0 {
		opts.Guests = 10
	}
	if opts.Posts <= 0 {
		opts.Posts = 40
	}
	if opts.Span <= 0 {
		opts.Span = 6 * time.Hour
	}

	if opts.Clean {
		if err := Clear(db); err != nil {
			return nil, err
		}
	}
	if err := Catalog(db); err != nil {
		return nil, err
	}

	catalog := repository.NewCatalogRepository(db)
	categories, err := catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	var tier models.PricingTier
	// The largest tier keeps the demo event under its upload limit.
	if err := db.WithContext(ctx).Order("guest_count DESC").First(&tier).Error; err != nil {
		return nil, fmt.Errorf("load pricing tier: %w", err)
	}

	f := NewFactory(db, opts.RandSeed)
	users := make([]*models.User, 0, opts.Guests+1)
	for i := 0; i <= opts.Guests; i++ {
		u := f.BuildUser()
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(u).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		if u.ID == 0 {
			continue
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no users created")
	}
	owner := users[0]

	event := f.BuildEvent(owner, &tier, time.Now().UTC().Add(-opts.Span).Truncate(time.Hour))
	if err := db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	writer := feed.NewWriter(repository.NewFeedRepository(db, nil), feed.NewScorer(catalog))
	posts := make([]*models.Post, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		author := users[f.rnd.Intn(len(users))]
		post := f.BuildPost(event, author, categories, opts.Span)
		if err := db.WithContext(ctx).Create(post).Error; err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		if err := writer.Record(ctx, feed.Input{
			PostID:     post.ID,
			CategoryID: post.CategoryID,
			EventHash:  post.EventHash,
			CapturedAt: post.CapturedAt,
		}); err != nil {
			return nil, fmt.Errorf("place post %d on feed: %w", post.ID, err)
		}
		posts = append(posts, post)
	}

	for _, post := range posts {
		for _, idx := range f.Pick(len(users), f.rnd.Intn(4)) {
			comment := f.BuildComment(post, users[idx])
			if err := db.WithContext(ctx).Create(comment).Error; err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
		}
		for _, idx := range f.Pick(len(users), f.rnd.Intn(len(users)+1)) {
			like := &models.Like{PostID: post.ID, UserID: users[idx].ID}
			if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
				return nil, fmt.Errorf("create like: %w", err)
			}
		}
	}

	middleware.Logger.Info("demo event seeded",
		slog.String("event_hash", event.EventHash),
		slog.Int("users", len(users)),
		slog.Int("posts", len(posts)),
	)
	return &Result{EventHash: event.EventHash, OwnerID: owner.ID, Posts: len(posts)}, nil
}

// Clear removes all user generated rows. The catalog is kept.
func Clear(db *gorm.DB) error {
	tables := []any{
		&models.Like{},
		&models.Comment{},
		&models.PostScore{},
		&models.FeedEntry{},
		&models.Post{},
		&models.RecentlyViewed{},
		&models.Event{},
		&models.OTP{},
		&models.User{},
	}
	for _, t := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
			return fmt.Errorf("clear %T: %w", t, err)
		}
	}
	return nil
}
