package server

import (
	"orma/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/events/:hash/feed
// @Summary List an event's timeslots
// @Description Timeslots are hourly buckets in UTC after the event date, oldest first. latest_full reports whether the newest one holds enough posts to show on its own.
// @Tags feed
// @Produce json
// @Param hash path string true "Event hash"
// @Success 200 {object} models.FeedIndex
// @Failure 404 {object} models.ErrorResponse
// @Router /events/{hash}/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	index, err := s.feedReader.Index(c.UserContext(), hash)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(index)
}

// GetTimeslotPage handles GET /api/events/:hash/feed/:timeslot?page=N
// @Summary One page of a timeslot
// @Tags feed
// @Produce json
// @Param hash path string true "Event hash"
// @Param timeslot path string true "Timeslot, RFC3339"
// @Param page query int false "Page, starting at 1"
// @Success 200 {array} models.FeedPageEntry
// @Failure 400 {object} models.ErrorResponse
// @Router /events/{hash}/feed/{timeslot} [get]
func (s *Server) GetTimeslotPage(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	slot, err := parseTime(c.Params("timeslot"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("timeslot must be an RFC3339 timestamp"))
	}
	entries, err := s.feedReader.TimeslotPage(c.UserContext(), hash, slot, parsePage(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(entries)
}

// GetMemories handles GET /api/events/:hash/feed/memories?page=N
// @Summary Completed posts captured before the event date, newest capture first
// @Tags feed
// @Produce json
// @Param hash path string true "Event hash"
// @Param page query int false "Page, starting at 1"
// @Success 200 {array} models.MemoryEntry
// @Router /events/{hash}/feed/memories [get]
func (s *Server) GetMemories(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	entries, err := s.feedReader.Memories(c.UserContext(), hash, parsePage(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(entries)
}
