package server

import (
	"log/slog"

	"orma/internal/featureflags"
	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// LiveFeedHandler serves GET /api/events/:hash/live. Viewers receive
// post.completed and post.deleted events for the event as they happen.
func (s *Server) LiveFeedHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		hash, _ := conn.Locals("eventHash").(string)
		if s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(hash, conn)
		if err != nil {
			middleware.Logger.Warn("live feed connection rejected",
				slog.String("event_hash", hash),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !s.featureFlags.On(featureflags.LiveFeed) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				&models.AppError{Code: models.CodeNotFound, Message: "Live feed is disabled"})
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		hash := c.Params("hash")
		if err := validation.ValidateEventHash(hash); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
		}
		if _, err := s.eventService.GetEvent(c.UserContext(), hash); err != nil {
			return models.Respond(c, err)
		}

		c.Locals("eventHash", hash)
		return upgrade(c)
	}
}
