package service

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	eventHashBytes = 20
	// MaxHashAttempts caps event creation retries on hash collisions.
	MaxHashAttempts = 10
)

// NewEventHash returns 20 random bytes as 40 hex characters.
func NewEventHash() (string, error) {
	b := make([]byte, eventHashBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
