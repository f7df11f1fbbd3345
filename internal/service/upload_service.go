package service

import (
	"context"
	"strconv"
	"time"

	"orma/internal/featureflags"
	"orma/internal/feed"
	"orma/internal/media"
	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/observability"
	"orma/internal/queue"
	"orma/internal/repository"
	"orma/internal/storage"
	"orma/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// MaxUploadBytes bounds a single guest photo.
const MaxUploadBytes = 7 << 20

type UploadInput struct {
	UserID       uint
	EventHash    string
	Filename     string
	Data         []byte
	CategoryID   uint
	OriginalDate time.Time
	Timezone     string
}

// UploadedPost is the slice of the new post returned to the uploader.
type UploadedPost struct {
	ID         uint   `json:"id"`
	CategoryID uint   `json:"category_id"`
	ImageURL   string `json:"image_url"`
}

type UploadResult struct {
	Post    UploadedPost `json:"post"`
	Message string       `json:"message"`
}

type UploadService struct {
	events  *EventService
	posts   repository.PostRepository
	storage ObjectStore
	jobs    queue.Publisher
	writer  *feed.Writer
	assets  feed.Assets
	flags   *featureflags.Manager
}

func NewUploadService(
	events *EventService,
	posts repository.PostRepository,
	store ObjectStore,
	jobs queue.Publisher,
	writer *feed.Writer,
	assets feed.Assets,
	flags *featureflags.Manager,
) *UploadService {
	return &UploadService{
		events:  events,
		posts:   posts,
		storage: store,
		jobs:    jobs,
		writer:  writer,
		assets:  assets,
		flags:   flags,
	}
}

// Upload accepts a guest photo: it gates on expiry and capacity, stores the
// original, creates the post, enqueues processing and places it on the feed.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (result *UploadResult, err error) {
	ctx, span := observability.StartSpan(ctx, "upload.photo", in.EventHash)
	defer func() {
		observability.EndSpan(span, err)
		outcome := "ok"
		if err != nil {
			outcome = uploadOutcome(err)
		}
		observability.Uploads.WithLabelValues(outcome).Inc()
	}()

	event, err := s.events.events.GetByHash(ctx, in.EventHash)
	if err != nil {
		return nil, err
	}
	if err := s.events.CheckUploadAllowed(ctx, event, in.UserID); err != nil {
		return nil, err
	}

	loc, err := validateUpload(in)
	if err != nil {
		return nil, err
	}

	capturedAt := in.OriginalDate.UTC()
	if s.flags.On(featureflags.ExifCaptureTime) {
		capturedAt = media.CaptureTime(in.Data, loc, in.OriginalDate)
	}

	key, relative := storage.UploadKey(event.EventHash, uuid.NewString(), in.Filename)
	if err := s.storage.Put(ctx, key, media.SniffContentType(in.Data), in.Data); err != nil {
		return nil, err
	}
	observability.UploadBytes.Observe(float64(len(in.Data)))

	post := &models.Post{
		EventHash:  event.EventHash,
		UserID:     in.UserID,
		UploadURL:  relative,
		CapturedAt: capturedAt,
		Status:     models.PostStatusReadyForProcessing,
		CategoryID: in.CategoryID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("post.id", int(post.ID)))

	// Written before the job is queued so the worker's callback finds the entry.
	// Failures are logged by the writer and never fail the upload; the callback
	// records the post again once it completes.
	_ = s.writer.Record(ctx, feed.Input{
		PostID:     post.ID,
		CategoryID: post.CategoryID,
		EventHash:  post.EventHash,
		CapturedAt: post.CapturedAt,
	})

	if err := s.jobs.Publish(ctx, queue.PostMessage(post.ID, key)); err != nil {
		// The guest sees the post as a failed upload in their pending list.
		if markErr := s.posts.UpdateStatus(ctx, post.ID, models.PostStatusFailedUpload); markErr != nil {
			middleware.Logger.ErrorContext(ctx, "failed to mark post as failed upload",
				"post_id", post.ID, "error", markErr)
		}
		return nil, err
	}

	return &UploadResult{
		Post: UploadedPost{
			ID:         post.ID,
			CategoryID: post.CategoryID,
			ImageURL:   s.assets.ImageURL(relative),
		},
		Message: "Upload successful",
	}, nil
}

func validateUpload(in UploadInput) (*time.Location, error) {
	if len(in.Data) == 0 {
		return nil, models.NewValidationError("image is required")
	}
	if len(in.Data) > MaxUploadBytes {
		return nil, models.NewValidationError("image must be at most 7MB")
	}
	if !media.IsImage(in.Data) {
		return nil, models.NewValidationError("file must be an image")
	}
	if in.CategoryID == 0 {
		return nil, models.NewValidationError("category_id must be a positive integer")
	}
	if in.OriginalDate.IsZero() {
		return nil, models.NewValidationError("original_date must be an RFC3339 timestamp")
	}
	loc, err := validation.ParseTimezone(in.Timezone)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return loc, nil
}

func uploadOutcome(err error) string {
	for _, code := range []string{
		models.CodeValidation, models.CodeLimitReached, models.CodeEventExpired,
		models.CodeNotFound, models.CodeDependencyTimeout,
	} {
		if models.IsCode(err, code) {
			return code
		}
	}
	return "error"
}

// ParseCategoryID parses a multipart category_id field.
func ParseCategoryID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("category_id must be a positive integer")
	}
	return uint(id), nil
}
