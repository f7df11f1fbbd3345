package server

import (
	"errors"
	"io"
	"net/url"
	"strings"
	"time"
	"unicode"

	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/service"
	"orma/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// eventHash validates the :hash route parameter and tags the request context with it.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) eventHash(c *fiber.Ctx) (string, error) {
	hash := c.Params("hash")
	if err := validation.ValidateEventHash(hash); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
		return "", errResponseWritten
	}
	c.SetUserContext(middleware.WithEventHash(c.UserContext(), hash))
	return hash, nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// parsePage reads ?page=N; missing or invalid values mean the first page.
func parsePage(c *fiber.Ctx) int {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	return page
}

// parseTime parses an RFC3339 value, accepting an unescaped path segment.
func parseTime(raw string) (time.Time, error) {
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return time.Parse(time.RFC3339, strings.TrimSpace(raw))
}

// readFormFile loads a multipart file, reading at most max+1 bytes so oversized
// files are detected without buffering them whole. A missing field returns nil.
func readFormFile(c *fiber.Ctx, field string, max int64) (*service.EventImage, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	f, err := header.Open()
	if err != nil {
		return nil, models.NewValidationError("could not read " + field)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, models.NewValidationError("could not read " + field)
	}
	return &service.EventImage{Filename: header.Filename, Data: data}, nil
}
