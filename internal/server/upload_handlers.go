package server

import (
	"orma/internal/models"
	"orma/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadPost handles POST /api/events/:hash/upload
// @Summary Upload a photo
// @Description Stores the photo, creates a post, queues processing and places it on the feed
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Event hash"
// @Param image formData file true "Photo"
// @Param category_id formData int true "Category"
// @Param original_date formData string true "Client capture time (RFC3339)"
// @Param timezone formData string true "IANA time zone of the device"
// @Success 201 {object} service.UploadResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 410 {object} models.ErrorResponse
// @Router /events/{hash}/upload [post]
func (s *Server) UploadPost(c *fiber.Ctx) error {
	hash, err := s.eventHash(c)
	if err != nil {
		return nil
	}

	// Field validation happens in the service, after the expiry and capacity gates.
	image, err := readFormFile(c, "image", service.MaxUploadBytes)
	if err != nil {
		return models.Respond(c, err)
	}
	if image == nil {
		image = &service.EventImage{}
	}
	categoryID, _ := service.ParseCategoryID(c.FormValue("category_id"))
	originalDate, _ := parseTime(c.FormValue("original_date"))

	result, err := s.uploadService.Upload(c.UserContext(), service.UploadInput{
		UserID:       currentUserID(c),
		EventHash:    hash,
		Filename:     image.Filename,
		Data:         image.Data,
		CategoryID:   categoryID,
		OriginalDate: originalDate,
		Timezone:     c.FormValue("timezone"),
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
