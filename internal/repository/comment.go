package repository

import (
	"context"

	"orma/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	LatestByPosts(ctx context.Context, postIDs []uint, perPost int) (map[uint][]models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return dbError(r.db.WithContext(ctx).Create(comment).Error)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost returns every comment on a post, oldest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, dbError(err)
}

// LatestByPosts returns up to perPost of the newest comments for each post.
func (r *commentRepository) LatestByPosts(ctx context.Context, postIDs []uint, perPost int) (map[uint][]models.Comment, error) {
	out := make(map[uint][]models.Comment, len(postIDs))
	if len(postIDs) == 0 || perPost <= 0 {
		return out, nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// Window functions are available on both Postgres and SQLite >= 3.25.
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Table("(?) AS ranked", r.db.Model(&models.Comment{}).
			Select("comments.*, ROW_NUMBER() OVER (PARTITION BY post_id ORDER BY created_at DESC, id DESC) AS rn").
			Where("post_id IN ?", postIDs)).
		Where("rn <= ?", perPost).
		Order("post_id ASC, created_at DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, dbError(err)
	}

	for _, c := range comments {
		out[c.PostID] = append(out[c.PostID], c)
	}
	return out, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Model(comment).
		Select("content", "updated_at").
		Updates(comment).Error
	return dbError(err)
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return dbError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}
