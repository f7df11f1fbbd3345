package repository

import (
	"context"
	"time"

	"orma/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetInEvent(ctx context.Context, eventHash string, id uint) (*models.Post, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	ListCompleted(ctx context.Context, eventHash string, limit, offset int) ([]models.Post, error)
	ListCapturedBefore(ctx context.Context, eventHash string, before time.Time, limit, offset int) ([]models.Post, error)
	ListPending(ctx context.Context, eventHash string, userID uint) ([]models.Post, error)
	ListByStatus(ctx context.Context, eventHash string, status models.PostStatus, limit, offset int) ([]models.Post, error)
	CountCompleted(ctx context.Context, eventHash string) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error
	UpdateProcessed(ctx context.Context, id uint, status models.PostStatus, compressedURL, description string) error
	DeleteCascade(ctx context.Context, id uint) error

	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
	CountLikes(ctx context.Context, postID uint) (int64, error)
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// withDetails selects the like count alongside the post and preloads the author.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Select("posts.*, (SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count").
		Preload("User")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return dbError(r.db.WithContext(ctx).Create(post).Error)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

// GetInEvent loads a post with author and like count, scoped to its event.
func (r *postRepository) GetInEvent(ctx context.Context, eventHash string, id uint) (*models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var post models.Post
	err := withDetails(r.db.WithContext(ctx)).
		Where("posts.id = ? AND posts.event_hash = ?", id, eventHash).
		First(&post).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

// GetByIDs loads posts with author and like count. Order is unspecified.
func (r *postRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var posts []models.Post
	err := withDetails(r.db.WithContext(ctx)).Where("posts.id IN ?", ids).Find(&posts).Error
	return posts, dbError(err)
}

func (r *postRepository) ListCompleted(ctx context.Context, eventHash string, limit, offset int) ([]models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var posts []models.Post
	err := withDetails(r.db.WithContext(ctx)).
		Where("posts.event_hash = ? AND posts.status = ?", eventHash, models.PostStatusCompleted).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, dbError(err)
}

// ListCapturedBefore returns completed posts captured strictly before the given time,
// newest capture first.
func (r *postRepository) ListCapturedBefore(ctx context.Context, eventHash string, before time.Time, limit, offset int) ([]models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var posts []models.Post
	err := withDetails(r.db.WithContext(ctx)).
		Where("posts.event_hash = ? AND posts.status = ? AND posts.captured_at < ?", eventHash, models.PostStatusCompleted, before).
		Order("posts.captured_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, dbError(err)
}

func (r *postRepository) ListPending(ctx context.Context, eventHash string, userID uint) ([]models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("event_hash = ? AND user_id = ? AND status IN ?", eventHash, userID, models.PendingStatuses).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	return posts, dbError(err)
}

func (r *postRepository) ListByStatus(ctx context.Context, eventHash string, status models.PostStatus, limit, offset int) ([]models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var posts []models.Post
	err := withDetails(r.db.WithContext(ctx)).
		Where("posts.event_hash = ? AND posts.status = ?", eventHash, status).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, dbError(err)
}

func (r *postRepository) CountCompleted(ctx context.Context, eventHash string) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("event_hash = ? AND status = ?", eventHash, models.PostStatusCompleted).
		Count(&count).Error
	return count, dbError(err)
}

func (r *postRepository) UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&models.Post{ID: id}).Update("status", status)
	if res.Error != nil {
		return dbError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// UpdateProcessed stores the worker's result: status plus compressed asset and
// generated description.
func (r *postRepository) UpdateProcessed(ctx context.Context, id uint, status models.PostStatus, compressedURL, description string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&models.Post{ID: id}).Updates(map[string]interface{}{
		"status":         status,
		"compressed_url": compressedURL,
		"description":    description,
	})
	if res.Error != nil {
		return dbError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// DeleteCascade removes a post with its likes, comments, score and feed entry in
// one transaction.
func (r *postRepository) DeleteCascade(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostScore{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.FeedEntry{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, "Post", id)
	}
	return nil
}

// Like is idempotent: a repeated like is a no-op.
func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).
		Create(&models.Like{UserID: userID, PostID: postID}).Error
	return dbError(err)
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error
	return dbError(err)
}

func (r *postRepository) CountLikes(ctx context.Context, postID uint) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, dbError(err)
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, dbError(err)
	}
	return count > 0, nil
}
