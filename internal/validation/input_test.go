package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhone(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{"Valid", "15551234567", false},
		{"Minimum", "123456", false},
		{"Plus Prefix", "+15551234567", true},
		{"Letters", "1555abc4567", true},
		{"Too Short", "12345", true},
		{"Too Long", strings.Repeat("1", 16), true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateComment(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateComment("nice"))
	assert.NoError(t, ValidateComment(strings.Repeat("é", 200)))
	assert.Error(t, ValidateComment(strings.Repeat("a", 201)))
	assert.Error(t, ValidateComment("   "))
}

func TestValidateEventName(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEventName("Ana & Ben"))
	assert.Error(t, ValidateEventName(" "))
	assert.Error(t, ValidateEventName(strings.Repeat("x", 201)))
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail(""))
	assert.NoError(t, ValidateEmail("guest@example.com"))
	assert.Error(t, ValidateEmail("Guest <guest@example.com>"))
	assert.Error(t, ValidateEmail("not-an-email"))
}

func TestValidateEventHash(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEventHash(strings.Repeat("ab", 20)))
	assert.Error(t, ValidateEventHash(""))
	assert.Error(t, ValidateEventHash("../etc"))
}

func TestParseTimezone(t *testing.T) {
	t.Parallel()
	loc, err := ParseTimezone("Europe/Bucharest")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Bucharest", loc.String())

	_, err = ParseTimezone("")
	assert.Error(t, err)
	_, err = ParseTimezone("Mars/Olympus")
	assert.Error(t, err)
}
