package service

import (
	"context"
	"strings"

	"orma/internal/feed"
	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/notifications"
	"orma/internal/observability"
	"orma/internal/repository"
)

// ProcessedInput is the worker's report on a post.
type ProcessedInput struct {
	PostID        uint    `json:"post_id"`
	Status        string  `json:"status"`
	SmallImageURL *string `json:"small_image_url,omitempty"`
	Description   *string `json:"description,omitempty"`
	Category      *string `json:"category,omitempty"`
}

// CallbackService applies results from the image processing worker.
type CallbackService struct {
	posts    repository.PostRepository
	catalog  repository.CatalogRepository
	feed     repository.FeedRepository
	writer   *feed.Writer
	notifier *notifications.Notifier
	assets   feed.Assets
}

func NewCallbackService(
	posts repository.PostRepository,
	catalog repository.CatalogRepository,
	feedRepo repository.FeedRepository,
	writer *feed.Writer,
	notifier *notifications.Notifier,
	assets feed.Assets,
) *CallbackService {
	return &CallbackService{
		posts:    posts,
		catalog:  catalog,
		feed:     feedRepo,
		writer:   writer,
		notifier: notifier,
		assets:   assets,
	}
}

// GetPost returns the raw post record.
func (s *CallbackService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	if id == 0 {
		return nil, models.NewValidationError("post_id is required")
	}
	return s.posts.GetByID(ctx, id)
}

// Apply records the worker's result. A category name reclassifies the feed
// entry and score when it matches a known category; unknown names are ignored.
// Every completed post ends up with exactly one feed entry.
func (s *CallbackService) Apply(ctx context.Context, in ProcessedInput) (*models.Post, error) {
	status := models.PostStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !status.Valid() {
		return nil, models.NewValidationError("status must be one of READYFORPROCESSING, PROCESSING, COMPLETED, FAILEDUPLOAD, FAILEDBYNUDITY")
	}
	if in.PostID == 0 {
		return nil, models.NewValidationError("post_id is required")
	}

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	previous := post.Status

	if in.SmallImageURL != nil {
		description := post.Description
		if in.Description != nil {
			description = *in.Description
		}
		if err := s.posts.UpdateProcessed(ctx, post.ID, status, *in.SmallImageURL, description); err != nil {
			return nil, err
		}
		post.CompressedURL = *in.SmallImageURL
		post.Description = description
	} else if err := s.posts.UpdateStatus(ctx, post.ID, status); err != nil {
		return nil, err
	}
	post.Status = status
	observability.ProcessingCallbacks.WithLabelValues(string(status)).Inc()

	if err := s.place(ctx, post, in.Category); err != nil {
		return nil, err
	}

	if status == models.PostStatusCompleted && previous != models.PostStatusCompleted {
		err := s.notifier.PublishPostEvent(ctx, notifications.PostEvent{
			Type:       notifications.PostCompleted,
			EventHash:  post.EventHash,
			PostID:     post.ID,
			CategoryID: post.CategoryID,
			ImageURL:   s.assets.ImageURL(post.UploadURL),
		})
		if err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish post event", "post_id", post.ID, "error", err)
		}
	}
	return post, nil
}

// place keeps the post's feed entry in line with the worker's report. A matching
// category reclassifies the entry; a completed post missing from the feed, for
// instance after a failed write at upload time, is recorded again.
func (s *CallbackService) place(ctx context.Context, post *models.Post, categoryName *string) error {
	category, err := s.resolveCategory(ctx, post.ID, categoryName)
	if err != nil {
		return err
	}

	if category != nil {
		err := s.feed.Reclassify(ctx, post.ID, category.ID, category.Score)
		if err == nil || !models.IsCode(err, models.CodeNotFound) {
			return err
		}
		middleware.Logger.WarnContext(ctx, "post has no feed entry, recording it", "post_id", post.ID)
		return s.record(ctx, post, category.ID)
	}

	if post.Status != models.PostStatusCompleted {
		return nil
	}
	if _, err := s.feed.GetEntry(ctx, post.ID); err == nil || !models.IsCode(err, models.CodeNotFound) {
		return err
	}
	middleware.Logger.WarnContext(ctx, "completed post has no feed entry, recording it", "post_id", post.ID)
	return s.record(ctx, post, post.CategoryID)
}

func (s *CallbackService) resolveCategory(ctx context.Context, postID uint, name *string) (*models.Category, error) {
	if name == nil || strings.TrimSpace(*name) == "" {
		return nil, nil
	}
	category, err := s.catalog.FindCategoryByName(ctx, *name)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			middleware.Logger.InfoContext(ctx, "worker category did not match", "post_id", postID, "category", *name)
			return nil, nil
		}
		return nil, err
	}
	return category, nil
}

func (s *CallbackService) record(ctx context.Context, post *models.Post, categoryID uint) error {
	return s.writer.Record(ctx, feed.Input{
		PostID:     post.ID,
		CategoryID: categoryID,
		EventHash:  post.EventHash,
		CapturedAt: post.CapturedAt,
	})
}
