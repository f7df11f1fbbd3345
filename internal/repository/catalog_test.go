package repository

import (
	"context"
	"testing"
	"time"

	"orma/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCatalogRepository_Categories(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&[]models.Category{
		{Name: "Dance Floor", Score: 3},
		{Name: "Wedding Cake", Score: 5},
		{Name: "Cake Table", Score: 2},
	}).Error)

	list, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	got, err := repo.FindCategoryByName(ctx, "  CAKE ")
	require.NoError(t, err)
	assert.Equal(t, "Wedding Cake", got.Name, "first match by id")

	_, err = repo.FindCategoryByName(ctx, "fireworks")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	_, err = repo.FindCategoryByName(ctx, "")
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	cat, err := repo.GetCategory(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cat.Score)
}

func TestCatalogRepository_PricingTiers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	_, err := repo.GetFreeTier(ctx)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	require.NoError(t, db.Create(&[]models.PricingTier{
		{Name: "Party", Cost: "49", GuestCount: 100, Features: datatypes.JSON(`["hd"]`)},
		{Name: "Free", Cost: "0", GuestCount: 10, Features: datatypes.JSON(`[]`)},
	}).Error)

	free, err := repo.GetFreeTier(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Free", free.Name)
	assert.Equal(t, int64(200), free.UploadLimit())

	tiers, err := repo.ListPricingTiers(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, "Free", tiers[0].Name)
	assert.JSONEq(t, `["hd"]`, string(tiers[1].Features))
}

func TestEventRepository(t *testing.T) {
	db := setupTestDB(t)
	mr, store := setupTestStore(t)
	repo := NewEventRepository(db, store)
	ctx := context.Background()

	tier := &models.PricingTier{Name: "Free", Cost: "0", GuestCount: 10}
	require.NoError(t, db.Create(tier).Error)

	owner := seedUser(t, db, "15554001", "host")
	event := &models.Event{
		EventHash:     "abc",
		Name:          "Wedding",
		UserID:        owner.ID,
		EventDate:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		PricingTierID: tier.ID,
	}
	require.NoError(t, repo.Create(ctx, event))

	dup := *event
	dup.ID = 0
	assert.Error(t, repo.Create(ctx, &dup))

	got, err := repo.GetByHash(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Wedding", got.Name)
	require.NotNil(t, got.PricingTier)
	assert.Equal(t, 10, got.PricingTier.GuestCount)
	assert.True(t, mr.Exists("event:abc"))

	got.Name = "Reception"
	require.NoError(t, repo.Update(ctx, got))
	assert.False(t, mr.Exists("event:abc"))

	again, err := repo.GetByHash(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Reception", again.Name)

	_, err = repo.GetByHash(ctx, "missing")
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	mine, err := repo.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	byHash, err := repo.ListByHashes(ctx, []string{"abc", "nope"})
	require.NoError(t, err)
	assert.Len(t, byHash, 1)
}

func TestEventRepository_UpdateDropsTimeslotIndex(t *testing.T) {
	db := setupTestDB(t)
	mr, store := setupTestStore(t)
	repo := NewEventRepository(db, store)
	feedRepo := NewFeedRepository(db, store)
	ctx := context.Background()

	owner := seedUser(t, db, "15554002", "host")
	eventDate := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	event := &models.Event{EventHash: "moved", Name: "Party", UserID: owner.ID, EventDate: eventDate}
	require.NoError(t, repo.Create(ctx, event))

	p := seedPost(t, db, "moved", owner.ID, models.PostStatusCompleted, eventDate.Add(2*time.Hour))
	require.NoError(t, feedRepo.InsertEntryWithScore(ctx, &models.FeedEntry{
		PostID: p.ID, Timeslot: eventDate.Add(2 * time.Hour), EventHash: "moved",
	}, 1))

	slots, err := feedRepo.DistinctTimeslots(ctx, "moved", eventDate)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.True(t, mr.Exists("feed:timeslots:moved"))

	event.EventDate = eventDate.Add(3 * time.Hour)
	require.NoError(t, repo.Update(ctx, event))
	assert.False(t, mr.Exists("feed:timeslots:moved"))

	slots, err = feedRepo.DistinctTimeslots(ctx, "moved", event.EventDate)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestEventRepository_UpdatePricingTier(t *testing.T) {
	db := setupTestDB(t)
	mr, store := setupTestStore(t)
	repo := NewEventRepository(db, store)
	ctx := context.Background()

	free := &models.PricingTier{Name: "Free", Cost: "0", GuestCount: 1}
	party := &models.PricingTier{Name: "Party", Cost: "49", GuestCount: 50}
	require.NoError(t, db.Create(free).Error)
	require.NoError(t, db.Create(party).Error)

	owner := seedUser(t, db, "15554003", "host")
	require.NoError(t, repo.Create(ctx, &models.Event{
		EventHash: "tiered", Name: "Party", UserID: owner.ID,
		EventDate: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), PricingTierID: free.ID,
	}))

	_, err := repo.GetByHash(ctx, "tiered")
	require.NoError(t, err)
	require.True(t, mr.Exists("event:tiered"))

	require.NoError(t, repo.UpdatePricingTier(ctx, "tiered", party.ID))
	assert.False(t, mr.Exists("event:tiered"))

	got, err := repo.GetByHash(ctx, "tiered")
	require.NoError(t, err)
	require.NotNil(t, got.PricingTier)
	assert.Equal(t, "Party", got.PricingTier.Name)

	err = repo.UpdatePricingTier(ctx, "missing", party.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
