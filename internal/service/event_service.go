package service

import (
	"context"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"orma/internal/database"
	"orma/internal/feed"
	"orma/internal/media"
	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/payments"
	"orma/internal/queue"
	"orma/internal/repository"
	"orma/internal/storage"
	"orma/internal/validation"

	"github.com/google/uuid"
)

const (
	// MaxEventImageBytes bounds banner and profile image uploads.
	MaxEventImageBytes = 5 << 20

	imageKindBanner  = "banner"
	imageKindProfile = "profile_image"
)

// EventImage is an uploaded banner or profile image.
type EventImage struct {
	Filename string
	Data     []byte
}

type CreateEventInput struct {
	UserID       uint
	Name         string
	EventDate    time.Time
	Banner       *EventImage
	ProfileImage *EventImage
}

// UpdateEventInput carries the fields to change; nil means unchanged.
type UpdateEventInput struct {
	UserID       uint
	EventHash    string
	Name         *string
	EventDate    *time.Time
	Banner       *EventImage
	ProfileImage *EventImage
}

type EventService struct {
	events   repository.EventRepository
	users    repository.UserRepository
	catalog  repository.CatalogRepository
	posts    repository.PostRepository
	storage  ObjectStore
	jobs     queue.Publisher
	payments payments.Provider
	assets   feed.Assets
	newHash  func() (string, error)
	now      Clock
}

func NewEventService(
	events repository.EventRepository,
	users repository.UserRepository,
	catalog repository.CatalogRepository,
	posts repository.PostRepository,
	store ObjectStore,
	jobs queue.Publisher,
	pay payments.Provider,
	assets feed.Assets,
) *EventService {
	return &EventService{
		events:   events,
		users:    users,
		catalog:  catalog,
		posts:    posts,
		storage:  store,
		jobs:     jobs,
		payments: pay,
		assets:   assets,
		newHash:  NewEventHash,
		now:      systemClock,
	}
}

// CreateEvent stores a new event on the free tier under a freshly generated hash.
func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	if err := validation.ValidateEventName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.EventDate.IsZero() {
		return nil, models.NewValidationError("event_date is required")
	}
	if in.Banner == nil || in.ProfileImage == nil {
		return nil, models.NewValidationError("banner and profile_image are required")
	}
	banner, err := normalizeEventImage(in.Banner)
	if err != nil {
		return nil, err
	}
	profile, err := normalizeEventImage(in.ProfileImage)
	if err != nil {
		return nil, err
	}

	tier, err := s.catalog.GetFreeTier(ctx)
	if err != nil {
		return nil, err
	}

	bannerName := imageBaseName(in.Banner.Filename, imageKindBanner)
	profileName := imageBaseName(in.ProfileImage.Filename, imageKindProfile)

	var event *models.Event
	for attempt := 1; ; attempt++ {
		if attempt > MaxHashAttempts {
			return nil, models.NewHashExhaustedError(MaxHashAttempts)
		}
		hash, err := s.newHash()
		if err != nil {
			return nil, models.NewInternalError(err)
		}

		candidate := &models.Event{
			EventHash:       hash,
			Name:            strings.TrimSpace(in.Name),
			UserID:          in.UserID,
			EventDate:       in.EventDate.UTC(),
			BannerURL:       s.assets.Absolute(storage.EventImageKey(hash, imageKindBanner, bannerName)),
			ProfileImageURL: s.assets.Absolute(storage.EventImageKey(hash, imageKindProfile, profileName)),
			PricingTierID:   tier.ID,
		}
		err = s.events.Create(ctx, candidate)
		if err == nil {
			event = candidate
			break
		}
		if database.IsUniqueViolation(err) {
			middleware.Logger.WarnContext(ctx, "event hash collision, retrying", "attempt", attempt)
			continue
		}
		return nil, err
	}

	if err := s.storeImage(ctx, event.EventHash, imageKindBanner, bannerName, banner); err != nil {
		return nil, err
	}
	if err := s.storeImage(ctx, event.EventHash, imageKindProfile, profileName, profile); err != nil {
		return nil, err
	}

	event.PricingTier = tier
	s.attachOwner(ctx, event)
	return event, nil
}

// UpdateEvent changes an event owned by the caller.
func (s *EventService) UpdateEvent(ctx context.Context, in UpdateEventInput) (*models.Event, error) {
	if in.Name == nil && in.EventDate == nil && in.Banner == nil && in.ProfileImage == nil {
		return nil, models.NewValidationError("at least one field is required")
	}

	event, err := s.events.GetByHash(ctx, in.EventHash)
	if err != nil {
		return nil, err
	}
	if event.UserID != in.UserID {
		return nil, models.NewForbiddenError("Only the event owner can update the event")
	}

	if in.Name != nil {
		if err := validation.ValidateEventName(*in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		event.Name = strings.TrimSpace(*in.Name)
	}
	if in.EventDate != nil {
		if in.EventDate.IsZero() {
			return nil, models.NewValidationError("event_date is invalid")
		}
		event.EventDate = in.EventDate.UTC()
	}
	if in.Banner != nil {
		url, err := s.replaceImage(ctx, event.EventHash, imageKindBanner, in.Banner)
		if err != nil {
			return nil, err
		}
		event.BannerURL = url
	}
	if in.ProfileImage != nil {
		url, err := s.replaceImage(ctx, event.EventHash, imageKindProfile, in.ProfileImage)
		if err != nil {
			return nil, err
		}
		event.ProfileImageURL = url
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	s.attachOwner(ctx, event)
	return event, nil
}

// UpgradeTierInput moves an event to a larger pricing tier, paid with
// PaymentMethod.
type UpgradeTierInput struct {
	UserID        uint
	EventHash     string
	PricingTierID uint
	PaymentMethod string
}

// UpgradeResult is the upgraded event and the settled charge.
type UpgradeResult struct {
	Event   *models.Event     `json:"event"`
	Payment *payments.Receipt `json:"payment"`
}

// UpgradeTier charges the owner for tier and moves the event onto it, raising
// its upload limit. Only tiers with more guests than the current one qualify.
func (s *EventService) UpgradeTier(ctx context.Context, in UpgradeTierInput) (*UpgradeResult, error) {
	if in.PricingTierID == 0 {
		return nil, models.NewValidationError("pricing_tier_id is required")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, models.NewValidationError("payment_method is required")
	}

	event, err := s.events.GetByHash(ctx, in.EventHash)
	if err != nil {
		return nil, err
	}
	if event.UserID != in.UserID {
		return nil, models.NewForbiddenError("Only the event owner can change the pricing tier")
	}

	target, err := s.catalog.GetPricingTier(ctx, in.PricingTierID)
	if err != nil {
		return nil, err
	}
	current, err := s.currentTier(ctx, event)
	if err != nil {
		return nil, err
	}
	if target.GuestCount <= current.GuestCount {
		return nil, models.NewValidationError("pricing tier must raise the guest limit")
	}
	amount, err := costCents(target.Cost)
	if err != nil {
		return nil, err
	}

	receipt, err := s.payments.Charge(ctx, payments.Charge{
		AmountCents:   amount,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Description:   "Orma Event Payment",
		EventHash:     event.EventHash,
	})
	if err != nil {
		return nil, err
	}
	if !receipt.Paid() {
		return nil, models.NewPaymentFailedError("Payment was not completed")
	}

	if err := s.events.UpdatePricingTier(ctx, event.EventHash, target.ID); err != nil {
		middleware.Logger.ErrorContext(ctx, "charged event could not be moved to its tier",
			"event_hash", event.EventHash, "pricing_tier_id", target.ID, "payment_id", receipt.ID, "error", err)
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "event pricing tier upgraded",
		"event_hash", event.EventHash, "pricing_tier_id", target.ID, "payment_id", receipt.ID)

	updated, err := s.GetEvent(ctx, event.EventHash)
	if err != nil {
		return nil, err
	}
	return &UpgradeResult{Event: updated, Payment: receipt}, nil
}

// costCents converts a tier cost in dollars ("49", "49.50") to cents.
func costCents(cost string) (int64, error) {
	dollars, err := strconv.ParseFloat(strings.TrimSpace(cost), 64)
	if err != nil || dollars <= 0 || math.IsInf(dollars, 0) {
		return 0, models.NewValidationError(fmt.Sprintf("pricing tier cost %q is not chargeable", cost))
	}
	return int64(math.Round(dollars * 100)), nil
}

// GetEvent returns the event with its owner's public profile.
func (s *EventService) GetEvent(ctx context.Context, hash string) (*models.Event, error) {
	event, err := s.events.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	s.attachOwner(ctx, event)
	return event, nil
}

// ListByOwner returns events created by userID, newest first.
func (s *EventService) ListByOwner(ctx context.Context, userID uint) ([]models.Event, error) {
	events, err := s.events.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// CheckCapacity compares the event's completed posts with its tier's upload limit.
// The check is not atomic with the upload that follows, so concurrent uploads
// may overshoot the limit slightly.
func (s *EventService) CheckCapacity(ctx context.Context, hash string) (*models.CapacityStatus, error) {
	event, err := s.events.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return s.capacity(ctx, event)
}

func (s *EventService) currentTier(ctx context.Context, event *models.Event) (*models.PricingTier, error) {
	if event.PricingTier != nil {
		return event.PricingTier, nil
	}
	tier, err := s.catalog.GetPricingTier(ctx, event.PricingTierID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewNotFoundError("Pricing tier", event.PricingTierID)
		}
		return nil, err
	}
	return tier, nil
}

func (s *EventService) capacity(ctx context.Context, event *models.Event) (*models.CapacityStatus, error) {
	tier, err := s.currentTier(ctx, event)
	if err != nil {
		return nil, err
	}

	used, err := s.posts.CountCompleted(ctx, event.EventHash)
	if err != nil {
		return nil, err
	}
	limit := tier.UploadLimit()
	return &models.CapacityStatus{Used: used, Limit: limit, Reached: used >= limit}, nil
}

// CheckUploadAllowed applies the expiry window and the capacity gate for userID.
func (s *EventService) CheckUploadAllowed(ctx context.Context, event *models.Event, userID uint) error {
	if event.UserID != userID && event.Expired(s.now()) {
		return models.NewEventExpiredError(event.EventHash)
	}
	status, err := s.capacity(ctx, event)
	if err != nil {
		return err
	}
	if status.Reached {
		return models.NewLimitReachedError(status.Used, status.Limit)
	}
	return nil
}

func (s *EventService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.catalog.ListCategories(ctx)
}

func (s *EventService) ListPricingTiers(ctx context.Context) ([]models.PricingTier, error) {
	return s.catalog.ListPricingTiers(ctx)
}

// SignedURL presigns a GET for an upload belonging to the event.
func (s *EventService) SignedURL(ctx context.Context, hash, relative string) (string, error) {
	key, ok := storage.SignableKey(relative)
	if !ok || !strings.HasPrefix(key, storage.KeyPrefix+hash+"/") {
		return "", models.NewValidationError("key must reference an upload of this event")
	}
	if _, err := s.events.GetByHash(ctx, hash); err != nil {
		return "", err
	}
	return s.storage.PresignGet(ctx, key)
}

func (s *EventService) attachOwner(ctx context.Context, event *models.Event) {
	owner, err := s.users.GetByID(ctx, event.UserID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "event owner lookup failed", "event_hash", event.EventHash, "error", err)
		return
	}
	event.User = owner.Ref()
}

func (s *EventService) replaceImage(ctx context.Context, hash, kind string, img *EventImage) (string, error) {
	data, err := normalizeEventImage(img)
	if err != nil {
		return "", err
	}
	name := uuid.NewString()[:8] + "-" + imageBaseName(img.Filename, kind)
	if err := s.storeImage(ctx, hash, kind, name, data); err != nil {
		return "", err
	}
	return s.assets.Absolute(storage.EventImageKey(hash, kind, name)), nil
}

func (s *EventService) storeImage(ctx context.Context, hash, kind, name string, data []byte) error {
	key := storage.EventImageKey(hash, kind, name)
	if err := s.storage.Put(ctx, key, media.WebPContentType, data); err != nil {
		return err
	}
	if err := s.jobs.Publish(ctx, queue.Message{ImageURL: key}); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to enqueue event image", "key", key, "error", err)
	}
	return nil
}

func normalizeEventImage(img *EventImage) ([]byte, error) {
	if len(img.Data) == 0 {
		return nil, models.NewValidationError("image is empty")
	}
	if len(img.Data) > MaxEventImageBytes {
		return nil, models.NewValidationError("image must be at most 5MB")
	}
	if !media.IsImage(img.Data) {
		return nil, models.NewValidationError("file must be an image")
	}
	out, err := media.Normalize(img.Data)
	if err != nil {
		return nil, models.NewValidationError("image could not be decoded")
	}
	return out, nil
}

// imageBaseName strips directories and extension from filename, falling back to kind.
func imageBaseName(filename, kind string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return kind
	}
	return b.String()
}
