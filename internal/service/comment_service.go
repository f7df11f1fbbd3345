package service

import (
	"context"
	"strings"

	"orma/internal/models"
	"orma/internal/repository"
	"orma/internal/validation"
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	events   repository.EventRepository
}

type CreateCommentInput struct {
	EventHash string
	PostID    uint
	UserID    uint
	Content   string
}

type UpdateCommentInput struct {
	EventHash string
	PostID    uint
	CommentID uint
	UserID    uint
	Content   string
}

type DeleteCommentInput struct {
	EventHash string
	PostID    uint
	CommentID uint
	UserID    uint
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	events repository.EventRepository,
) *CommentService {
	return &CommentService{comments: comments, posts: posts, events: events}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validation.ValidateComment(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.posts.GetInEvent(ctx, in.EventHash, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: strings.TrimSpace(in.Content),
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, comment.ID)
}

// ListComments returns every comment on the post, oldest first.
func (s *CommentService) ListComments(ctx context.Context, hash string, postID uint) ([]models.Comment, error) {
	if _, err := s.posts.GetInEvent(ctx, hash, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	if _, err := s.posts.GetInEvent(ctx, in.EventHash, in.PostID); err != nil {
		return nil, err
	}
	comment, err := s.commentOnPost(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own comments")
	}
	if err := validation.ValidateComment(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment.Content = strings.TrimSpace(in.Content)
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, comment.ID)
}

// DeleteComment lets the author or the event owner remove a comment.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	if _, err := s.posts.GetInEvent(ctx, in.EventHash, in.PostID); err != nil {
		return err
	}
	comment, err := s.commentOnPost(ctx, in.PostID, in.CommentID)
	if err != nil {
		return err
	}

	if comment.UserID != in.UserID {
		event, err := s.events.GetByHash(ctx, in.EventHash)
		if err != nil {
			return err
		}
		if event.UserID != in.UserID {
			return models.NewForbiddenError("You can only delete your own comments")
		}
	}
	return s.comments.Delete(ctx, comment.ID)
}

func (s *CommentService) commentOnPost(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return comment, nil
}
