package feed

import (
	"strings"

	"orma/internal/models"
)

// Assets turns stored relative paths into absolute URLs under a public base.
type Assets struct {
	base string
}

// NewAssets returns Assets rooted at base; a trailing slash is added if missing.
func NewAssets(base string) Assets {
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return Assets{base: base}
}

// Absolute is the public URL of a bucket key.
func (a Assets) Absolute(key string) string {
	return a.base + strings.TrimPrefix(key, "/")
}

// ImageURL is the public URL of an original upload stored as uploadURL.
func (a Assets) ImageURL(uploadURL string) string {
	return a.base + "uploads/" + uploadURL
}

// CompressedURL is the public URL of the worker's compressed rendition, or empty
// when the post has not been compressed yet.
func (a Assets) CompressedURL(compressed string) string {
	if compressed == "" {
		return ""
	}
	return a.base + compressed
}

// View decorates p with absolute asset URLs.
func (a Assets) View(p *models.Post) models.AssetView {
	view := models.AssetView{
		ID:            p.ID,
		EventHash:     p.EventHash,
		UserID:        p.UserID,
		UploadURL:     p.UploadURL,
		ImageURL:      a.ImageURL(p.UploadURL),
		CompressedURL: a.CompressedURL(p.CompressedURL),
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		Status:        p.Status,
		CapturedAt:    p.CapturedAt,
		CreatedAt:     p.CreatedAt,
		User:          p.User.Ref(),
		LikesCount:    p.LikesCount,
		Comments:      p.RecentComments,
	}
	return view
}
