package media

import (
	"bytes"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// CaptureTime resolves when a photo was taken. The EXIF DateTimeOriginal tag
// carries no zone, so it is read as wall time in loc and converted to UTC. When
// the tag is missing or unreadable, fallback is returned in UTC.
func CaptureTime(data []byte, loc *time.Location, fallback time.Time) time.Time {
	if t, ok := exifCaptureTime(data, loc); ok {
		return t
	}
	return fallback.UTC()
}

func exifCaptureTime(data []byte, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return time.Time{}, false
	}
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, false
	}
	raw, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(exifTimeLayout, strings.TrimSpace(strings.TrimRight(raw, "\x00")), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
