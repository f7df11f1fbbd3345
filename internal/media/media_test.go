package media

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jpegWithDateTimeOriginal builds a minimal JPEG stream whose APP1 segment
// carries a single DateTimeOriginal tag.
func jpegWithDateTimeOriginal(value string) []byte {
	le := binary.LittleEndian
	tiff := bytes.NewBuffer(nil)
	w := func(v any) { _ = binary.Write(tiff, le, v) }

	tiff.WriteString("II")
	w(uint16(42))
	w(uint32(8))

	// IFD0 with the Exif sub-IFD pointer.
	w(uint16(1))
	w(uint16(0x8769))
	w(uint16(4))
	w(uint32(1))
	w(uint32(26))
	w(uint32(0))

	// Exif IFD with DateTimeOriginal.
	w(uint16(1))
	w(uint16(0x9003))
	w(uint16(2))
	w(uint32(len(value) + 1))
	w(uint32(44))
	w(uint32(0))

	tiff.WriteString(value)
	tiff.WriteByte(0)

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	out := bytes.NewBuffer([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write([]byte{0xFF, 0xD9})
	return out.Bytes()
}

func pngOfSize(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, G: 10, B: 90, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestCaptureTime(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	fallback := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	tests := []struct {
		name string
		data []byte
		loc  *time.Location
		want time.Time
	}{
		{
			name: "exif in event timezone",
			data: jpegWithDateTimeOriginal("2024:01:01 05:47:00"),
			loc:  ny,
			want: time.Date(2024, 1, 1, 10, 47, 0, 0, time.UTC),
		},
		{
			name: "nil location reads as UTC",
			data: jpegWithDateTimeOriginal("2024:01:01 05:47:00"),
			loc:  nil,
			want: time.Date(2024, 1, 1, 5, 47, 0, 0, time.UTC),
		},
		{
			name: "unparseable tag falls back",
			data: jpegWithDateTimeOriginal("not a timestamp!!!!"),
			loc:  ny,
			want: fallback.UTC(),
		},
		{
			name: "no exif falls back",
			data: pngOfSize(t, 4, 4),
			loc:  ny,
			want: fallback.UTC(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CaptureTime(tt.data, tt.loc, fallback)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("large image is scaled to fit", func(t *testing.T) {
		out, err := Normalize(pngOfSize(t, 3000, 1000))
		require.NoError(t, err)
		assert.Equal(t, WebPContentType, SniffContentType(out))

		cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, "webp", format)
		assert.Equal(t, 2048, cfg.Width)
		assert.Equal(t, 682, cfg.Height)
	})

	t.Run("small image keeps its size", func(t *testing.T) {
		out, err := Normalize(pngOfSize(t, 64, 32))
		require.NoError(t, err)

		cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 64, cfg.Width)
		assert.Equal(t, 32, cfg.Height)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := Normalize([]byte("definitely not an image"))
		assert.Error(t, err)
	})
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage(pngOfSize(t, 2, 2)))
	assert.True(t, IsImage(jpegWithDateTimeOriginal("2024:01:01 00:00:00")))
	assert.False(t, IsImage([]byte("hello world")))
}
