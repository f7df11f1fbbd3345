// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"context"
	"time"
)

// ObjectStore is the object storage used for uploads.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// Clock returns the current time; tests pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func pageOffset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}
