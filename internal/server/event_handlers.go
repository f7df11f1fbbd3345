package server

import (
	"strings"
	"time"

	"orma/internal/models"
	"orma/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateEvent handles POST /api/events
// @Summary Create an event
// @Description Creates an event on the free tier. Banner and profile image are normalised to WebP.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Event name"
// @Param event_date formData string true "Event start (RFC3339)"
// @Param banner formData file true "Banner image"
// @Param profile_image formData file true "Profile image"
// @Success 201 {object} models.Event
// @Failure 400 {object} models.ErrorResponse
// @Router /events [post]
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	eventDate, err := parseTime(c.FormValue("event_date"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("event_date must be an RFC3339 timestamp"))
	}
	banner, err := readFormFile(c, "banner", service.MaxEventImageBytes)
	if err != nil {
		return models.Respond(c, err)
	}
	profile, err := readFormFile(c, "profile_image", service.MaxEventImageBytes)
	if err != nil {
		return models.Respond(c, err)
	}

	event, err := s.eventService.CreateEvent(c.UserContext(), service.CreateEventInput{
		UserID:       currentUserID(c),
		Name:         c.FormValue("name"),
		EventDate:    eventDate,
		Banner:       banner,
		ProfileImage: profile,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// UpdateEvent handles PUT /api/events/:hash
// @Summary Update an event
// @Description Owner only. Every field is optional but at least one is required.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Success 200 {object} models.Event
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /events/{hash} [put]
func (s *Server) UpdateEvent(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}

	in := service.UpdateEventInput{UserID: currentUserID(c), EventHash: hash}
	if name := c.FormValue("name"); name != "" {
		in.Name = &name
	}
	if raw := c.FormValue("event_date"); raw != "" {
		eventDate, err := parseTime(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("event_date must be an RFC3339 timestamp"))
		}
		in.EventDate = &eventDate
	}
	if in.Banner, err = readFormFile(c, "banner", service.MaxEventImageBytes); err != nil {
		return models.Respond(c, err)
	}
	if in.ProfileImage, err = readFormFile(c, "profile_image", service.MaxEventImageBytes); err != nil {
		return models.Respond(c, err)
	}

	event, err := s.eventService.UpdateEvent(c.UserContext(), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(event)
}

// GetEvent handles GET /api/events/:hash
// @Summary Get an event
// @Tags events
// @Produce json
// @Param hash path string true "Event hash"
// @Success 200 {object} models.Event
// @Failure 404 {object} models.ErrorResponse
// @Router /events/{hash} [get]
func (s *Server) GetEvent(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	event, err := s.eventService.GetEvent(c.UserContext(), hash)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(event)
}

// CheckLimit handles GET /api/events/:hash/check-limit
// @Summary Check the upload limit
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Success 200 {object} models.CapacityStatus
// @Failure 404 {object} models.ErrorResponse
// @Router /events/{hash}/check-limit [get]
func (s *Server) CheckLimit(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	status, err := s.eventService.CheckCapacity(c.UserContext(), hash)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(status)
}

type upgradeRequest struct {
	PricingTierID uint   `json:"pricing_tier_id"`
	PaymentMethod string `json:"payment_method"`
}

// UpgradeTier handles POST /api/events/:hash/upgrade
// @Summary Move an event to a paid pricing tier
// @Description Owner only. Charges the tier cost to the payment method and raises the upload limit.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Success 200 {object} service.UpgradeResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /events/{hash}/upgrade [post]
func (s *Server) UpgradeTier(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	var req upgradeRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res, err := s.eventService.UpgradeTier(c.UserContext(), service.UpgradeTierInput{
		UserID:        currentUserID(c),
		EventHash:     hash,
		PricingTierID: req.PricingTierID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(res)
}

// GetSignedURL handles GET /api/events/:hash/signed?key=...
// @Summary Presign an upload for download
// @Tags events
// @Produce json
// @Param hash path string true "Event hash"
// @Param key query string true "Relative upload path"
// @Success 200 {object} object{url=string,expires_at=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /events/{hash}/signed [get]
func (s *Server) GetSignedURL(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("key is required"))
	}

	url, err := s.eventService.SignedURL(c.UserContext(), hash, key)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"url":        url,
		"expires_at": time.Now().UTC().Add(time.Hour),
	})
}

// GetCategories handles GET /api/categories
// @Summary List photo categories
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.eventService.ListCategories(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return c.JSON(categories)
}

// GetPricingTiers handles GET /api/pricing
// @Summary List pricing tiers
// @Tags catalog
// @Produce json
// @Success 200 {array} models.PricingTier
// @Router /pricing [get]
func (s *Server) GetPricingTiers(c *fiber.Ctx) error {
	tiers, err := s.eventService.ListPricingTiers(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	if tiers == nil {
		tiers = []models.PricingTier{}
	}
	return c.JSON(tiers)
}

// GetFeatureFlags handles GET /api/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(s.featureFlags.Snapshot(currentUserID(c)))
}
