package server

import (
	"orma/internal/models"
	"orma/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// GetComments handles GET /api/events/:hash/posts/:id/comments
// @Summary List comments on a post
// @Tags comments
// @Produce json
// @Param hash path string true "Event hash"
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Router /events/{hash}/posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListComments(c.UserContext(), hash, postID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/events/:hash/posts/:id/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Param id path int true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Router /events/{hash}/posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		EventHash: hash,
		PostID:    postID,
		UserID:    currentUserID(c),
		Content:   req.Content,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/events/:hash/posts/:id/comments/:commentId
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Param id path int true "Post ID"
// @Param commentId path int true "Comment ID"
// @Param request body object{content=string} true "Comment"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.ErrorResponse
// @Router /events/{hash}/posts/{id}/comments/{commentId} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		EventHash: hash,
		PostID:    postID,
		CommentID: commentID,
		UserID:    currentUserID(c),
		Content:   req.Content,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/events/:hash/posts/:id/comments/:commentId
// @Summary Delete a comment
// @Description The author or the event owner may delete a comment
// @Tags comments
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Param id path int true "Post ID"
// @Param commentId path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /events/{hash}/posts/{id}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	err = s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		EventHash: hash,
		PostID:    postID,
		CommentID: commentID,
		UserID:    currentUserID(c),
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
