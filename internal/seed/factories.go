// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"orma/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	fake *gofakeit.Faker
	rnd  *rand.Rand
}

// NewFactory creates a Factory. A zero seed picks one from the clock.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:   db,
		fake: gofakeit.New(seed),
		rnd:  rand.New(rand.NewSource(seed)),
	}
}

// BuildUser returns an unsaved guest with a digits-only phone number.
func (f *Factory) BuildUser() *models.User {
	return &models.User{
		Phone: fmt.Sprintf("40%09d", f.rnd.Intn(1_000_000_000)),
		Name:  f.fake.FirstName() + " " + f.fake.LastName(),
		Email: f.fake.Email(),
	}
}

// BuildEvent returns an unsaved event owned by owner.
func (f *Factory) BuildEvent(owner *models.User, tier *models.PricingTier, date time.Time) *models.Event {
	hash := f.fake.LetterN(12) + f.fake.DigitN(4)
	return &models.Event{
		EventHash:       hash,
		Name:            f.fake.FirstName() + " & " + f.fake.FirstName(),
		UserID:          owner.ID,
		EventDate:       date.UTC(),
		BannerURL:       fmt.Sprintf("https://picsum.photos/seed/%s-banner/1200/600", hash),
		ProfileImageURL: fmt.Sprintf("https://picsum.photos/seed/%s-profile/400/400", hash),
		PricingTierID:   tier.ID,
	}
}

// BuildPost returns an unsaved completed post captured within span after the event start.
func (f *Factory) BuildPost(event *models.Event, author *models.User, categories []models.Category, span time.Duration) *models.Post {
	captured := event.EventDate.Add(time.Duration(f.rnd.Int63n(int64(span))))
	id := f.fake.UUID()
	post := &models.Post{
		EventHash:     event.EventHash,
		UserID:        author.ID,
		UploadURL:     fmt.Sprintf("%s/%s-%s.jpg", event.EventHash, id, f.fake.Word()),
		CapturedAt:    captured.UTC(),
		Status:        models.PostStatusCompleted,
		CompressedURL: fmt.Sprintf("%s/%s-small.webp", event.EventHash, id),
		Description:   f.fake.Sentence(8),
	}
	if len(categories) > 0 {
		post.CategoryID = categories[f.rnd.Intn(len(categories))].ID
	}
	return post
}

// BuildComment returns an unsaved comment within the length limit.
func (f *Factory) BuildComment(post *models.Post, author *models.User) *models.Comment {
	content := f.fake.Sentence(6)
	if len(content) > models.MaxCommentLength {
		content = content[:models.MaxCommentLength]
	}
	return &models.Comment{
		Content: content,
		PostID:  post.ID,
		UserID:  author.ID,
	}
}

// Pick returns n distinct indexes below max in random order.
func (f *Factory) Pick(max, n int) []int {
	if n > max {
		n = max
	}
	return f.rnd.Perm(max)[:n]
}
