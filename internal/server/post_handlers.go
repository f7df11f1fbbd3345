package server

import (
	"orma/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/events/:hash/posts?page=N
// @Summary List completed posts
// @Tags posts
// @Produce json
// @Param hash path string true "Event hash"
// @Param page query int false "Page, starting at 1"
// @Success 200 {array} models.AssetView
// @Failure 404 {object} models.ErrorResponse
// @Router /events/{hash}/posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	posts, err := s.postService.ListPosts(c.UserContext(), hash, parsePage(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/events/:hash/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param hash path string true "Event hash"
// @Param id path int true "Post ID"
// @Success 200 {object} models.AssetView
// @Failure 404 {object} models.ErrorResponse
// @Router /events/{hash}/posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), hash, id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/events/:hash/posts/:id
// @Summary Delete a post
// @Description The author or the event owner may delete a post
// @Tags posts
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /events/{hash}/posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), hash, id, currentUserID(c)); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPending handles GET /api/events/:hash/pending
// @Summary List the caller's unfinished uploads
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Success 200 {array} models.AssetView
// @Router /events/{hash}/pending [get]
func (s *Server) GetPending(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	posts, err := s.postService.ListPending(c.UserContext(), hash, currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// GetFailedNudity handles GET /api/events/:hash/failed-nudity?page=N
// @Summary List posts held by moderation
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Param page query int false "Page, starting at 1"
// @Success 200 {array} models.AssetView
// @Failure 403 {object} models.ErrorResponse
// @Router /events/{hash}/failed-nudity [get]
func (s *Server) GetFailedNudity(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	posts, err := s.postService.ListFailedNudity(c.UserContext(), hash, currentUserID(c), parsePage(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// ApproveFailedNudity handles PUT /api/events/:hash/failed-nudity/:id
// @Summary Publish a post held by moderation
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Param id path int true "Post ID"
// @Success 200 {object} models.AssetView
// @Failure 403 {object} models.ErrorResponse
// @Router /events/{hash}/failed-nudity/{id} [put]
func (s *Server) ApproveFailedNudity(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.ApproveFailedNudity(c.UserContext(), hash, id, currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(post)
}

// LikePost handles POST /api/events/:hash/posts/:id/like
// @Summary Like a post
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Param id path int true "Post ID"
// @Success 200 {object} models.LikeSummary
// @Router /events/{hash}/posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	summary, err := s.postService.Like(c.UserContext(), hash, id, currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(summary)
}

// UnlikePost handles DELETE /api/events/:hash/posts/:id/like
// @Summary Remove a like
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Param id path int true "Post ID"
// @Success 200 {object} models.LikeSummary
// @Router /events/{hash}/posts/{id}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	summary, err := s.postService.Unlike(c.UserContext(), hash, id, currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(summary)
}

// GetLikes handles GET /api/events/:hash/posts/:id/likes
// @Summary Like count of a post
// @Description liked is reported only for an authenticated caller
// @Tags likes
// @Produce json
// @Param hash path string true "Event hash"
// @Param id path int true "Post ID"
// @Success 200 {object} models.LikeSummary
// @Router /events/{hash}/posts/{id}/likes [get]
func (s *Server) GetLikes(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := s.optionalUserID(c)
	summary, err := s.postService.Likes(c.UserContext(), hash, id, userID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(summary)
}
