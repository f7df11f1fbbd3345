package server

import (
	"log/slog"

	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetLambdaPost handles GET /api/lambda/post?post_id=N
// @Summary Fetch a post for processing
// @Tags worker
// @Produce json
// @Security MachineAuth
// @Param post_id query int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /lambda/post [get]
func (s *Server) GetLambdaPost(c *fiber.Ctx) error {
	id := c.QueryInt("post_id", 0)
	if id <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("post_id is required"))
	}
	post, err := s.callbackService.GetPost(c.UserContext(), uint(id))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(post)
}

// UpdateLambdaPost handles POST /api/lambda/post
// @Summary Report a processing result
// @Description Updates status and processed assets. A known category name reclassifies the post's feed entry.
// @Tags worker
// @Accept json
// @Produce json
// @Security MachineAuth
// @Param request body service.ProcessedInput true "Processing result"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lambda/post [post]
func (s *Server) UpdateLambdaPost(c *fiber.Ctx) error {
	var in service.ProcessedInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.callbackService.Apply(c.UserContext(), in)
	if err != nil {
		return models.Respond(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "processing result applied",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.String("status", string(post.Status)),
	)
	return c.JSON(post)
}
