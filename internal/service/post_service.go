package service

import (
	"context"

	"orma/internal/cache"
	"orma/internal/feed"
	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/notifications"
	"orma/internal/repository"
)

const (
	// PostsPageSize is the number of posts per gallery page.
	PostsPageSize = 9
	// FailedNudityPageSize is the number of posts per moderation page.
	FailedNudityPageSize = 15
	// RecentCommentsPerPost is how many comments decorate a listed post.
	RecentCommentsPerPost = 5
)

type PostService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	events   repository.EventRepository
	cache    *cache.Store
	notifier *notifications.Notifier
	assets   feed.Assets
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	events repository.EventRepository,
	store *cache.Store,
	notifier *notifications.Notifier,
	assets feed.Assets,
) *PostService {
	return &PostService{
		posts:    posts,
		comments: comments,
		events:   events,
		cache:    store,
		notifier: notifier,
		assets:   assets,
	}
}

// ListPosts returns completed posts of the event, newest first.
func (s *PostService) ListPosts(ctx context.Context, hash string, page int) ([]models.AssetView, error) {
	if _, err := s.events.GetByHash(ctx, hash); err != nil {
		return nil, err
	}
	posts, err := s.posts.ListCompleted(ctx, hash, PostsPageSize, pageOffset(page, PostsPageSize))
	if err != nil {
		return nil, err
	}
	if err := s.attachRecentComments(ctx, posts); err != nil {
		return nil, err
	}
	return s.views(posts), nil
}

// GetPost returns a single post of the event.
func (s *PostService) GetPost(ctx context.Context, hash string, id uint) (*models.AssetView, error) {
	post, err := s.posts.GetInEvent(ctx, hash, id)
	if err != nil {
		return nil, err
	}
	posts := []models.Post{*post}
	if err := s.attachRecentComments(ctx, posts); err != nil {
		return nil, err
	}
	view := s.assets.View(&posts[0])
	return &view, nil
}

// DeletePost removes a post. Its author and the event owner may delete it.
func (s *PostService) DeletePost(ctx context.Context, hash string, id, userID uint) error {
	post, err := s.posts.GetInEvent(ctx, hash, id)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		event, err := s.events.GetByHash(ctx, hash)
		if err != nil {
			return err
		}
		if event.UserID != userID {
			return models.NewForbiddenError("Only the author or the event owner can delete this post")
		}
	}
	if err := s.posts.DeleteCascade(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateTimeslots(ctx, hash)
	return nil
}

// ListPending returns the caller's posts that have not completed processing.
func (s *PostService) ListPending(ctx context.Context, hash string, userID uint) ([]models.AssetView, error) {
	posts, err := s.posts.ListPending(ctx, hash, userID)
	if err != nil {
		return nil, err
	}
	return s.views(posts), nil
}

// ListFailedNudity returns posts held back by moderation. Event owner only.
func (s *PostService) ListFailedNudity(ctx context.Context, hash string, userID uint, page int) ([]models.AssetView, error) {
	if err := s.requireOwner(ctx, hash, userID); err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByStatus(ctx, hash, models.PostStatusFailedByNudity,
		FailedNudityPageSize, pageOffset(page, FailedNudityPageSize))
	if err != nil {
		return nil, err
	}
	return s.views(posts), nil
}

// ApproveFailedNudity overrides moderation and publishes the post. Event owner only.
func (s *PostService) ApproveFailedNudity(ctx context.Context, hash string, id, userID uint) (*models.AssetView, error) {
	if err := s.requireOwner(ctx, hash, userID); err != nil {
		return nil, err
	}
	post, err := s.posts.GetInEvent(ctx, hash, id)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusFailedByNudity {
		return nil, models.NewValidationError("post is not held by moderation")
	}
	if err := s.posts.UpdateStatus(ctx, id, models.PostStatusCompleted); err != nil {
		return nil, err
	}
	post.Status = models.PostStatusCompleted
	s.notifyCompleted(ctx, post)

	view := s.assets.View(post)
	return &view, nil
}

func (s *PostService) Like(ctx context.Context, hash string, postID, userID uint) (*models.LikeSummary, error) {
	if _, err := s.posts.GetInEvent(ctx, hash, postID); err != nil {
		return nil, err
	}
	if err := s.posts.Like(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.likeSummary(ctx, postID, userID)
}

func (s *PostService) Unlike(ctx context.Context, hash string, postID, userID uint) (*models.LikeSummary, error) {
	if _, err := s.posts.GetInEvent(ctx, hash, postID); err != nil {
		return nil, err
	}
	if err := s.posts.Unlike(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.likeSummary(ctx, postID, userID)
}

// Likes returns the like count; Liked is set only for an authenticated caller.
func (s *PostService) Likes(ctx context.Context, hash string, postID, userID uint) (*models.LikeSummary, error) {
	if _, err := s.posts.GetInEvent(ctx, hash, postID); err != nil {
		return nil, err
	}
	return s.likeSummary(ctx, postID, userID)
}

func (s *PostService) likeSummary(ctx context.Context, postID, userID uint) (*models.LikeSummary, error) {
	count, err := s.posts.CountLikes(ctx, postID)
	if err != nil {
		return nil, err
	}
	summary := &models.LikeSummary{PostID: postID, Count: count}
	if userID != 0 {
		liked, err := s.posts.IsLiked(ctx, userID, postID)
		if err != nil {
			return nil, err
		}
		summary.Liked = liked
	}
	return summary, nil
}

func (s *PostService) requireOwner(ctx context.Context, hash string, userID uint) error {
	event, err := s.events.GetByHash(ctx, hash)
	if err != nil {
		return err
	}
	if event.UserID != userID {
		return models.NewForbiddenError("Only the event owner can moderate posts")
	}
	return nil
}

func (s *PostService) attachRecentComments(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	latest, err := s.comments.LatestByPosts(ctx, ids, RecentCommentsPerPost)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].RecentComments = latest[posts[i].ID]
	}
	return nil
}

func (s *PostService) notifyCompleted(ctx context.Context, post *models.Post) {
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

func (s *PostService) views(posts []models.Post) []models.AssetView {
	out := make([]models.AssetView, len(posts))
	for i := range posts {
		out[i] = s.assets.View(&posts[i])
	}
	return out
}
