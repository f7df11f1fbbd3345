package server

import (
	"orma/internal/models"
	"orma/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type recentlyViewedRequest struct {
	EventHash string `json:"event_hash"`
}

// GetMyProfile handles GET /api/users/me
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update name or email
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updateProfileRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID: currentUserID(c),
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// GetMyEvents handles GET /api/users/me/events
// @Summary Events the caller owns
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Event
// @Router /users/me/events [get]
func (s *Server) GetMyEvents(c *fiber.Ctx) error {
	events, err := s.eventService.ListByOwner(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return c.JSON(events)
}

// GetRecentlyViewed handles GET /api/users/me/recently-viewed
// @Summary Events the caller opened last
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Event
// @Router /users/me/recently-viewed [get]
func (s *Server) GetRecentlyViewed(c *fiber.Ctx) error {
	events, err := s.userService.RecentlyViewed(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(events)
}

// TouchRecentlyViewed handles POST /api/users/me/recently-viewed
// @Summary Record that the caller opened an event
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param request body recentlyViewedRequest true "Event"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /users/me/recently-viewed [post]
func (s *Server) TouchRecentlyViewed(c *fiber.Ctx) error {
	var req recentlyViewedRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.TouchRecentlyViewed(c.UserContext(), currentUserID(c), req.EventHash); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
