// Package media inspects and normalises uploaded photos.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png" // Register PNG decoder
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// MaxDimension bounds both sides of a normalised event image.
	MaxDimension = 2048
	// WebPQuality is the lossy quality used for normalised images.
	WebPQuality = 80
	// WebPContentType is the content type of Normalize output.
	WebPContentType = "image/webp"
)

// SniffContentType returns the content type detected from the leading bytes.
func SniffContentType(data []byte) string {
	return http.DetectContentType(data)
}

// IsImage reports whether data looks like an image.
func IsImage(data []byte) bool {
	return strings.HasPrefix(SniffContentType(data), "image/")
}

// Normalize decodes data, scales it to fit MaxDimension and re-encodes it as WebP.
func Normalize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	out := bytes.NewBuffer(nil)
	if err := webp.Encode(out, resizeToFit(src, MaxDimension), &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return out.Bytes(), nil
}

func resizeToFit(src image.Image, max int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= max && h <= max) {
		return src
	}

	scale := float64(max) / float64(w)
	if hs := float64(max) / float64(h); hs < scale {
		scale = hs
	}
	newW := maxInt(int(float64(w)*scale), 1)
	newH := maxInt(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
