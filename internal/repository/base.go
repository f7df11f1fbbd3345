// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"orma/internal/models"

	"gorm.io/gorm"
)

// QueryTimeout bounds every repository call. Set from DB_TIMEOUT_SECONDS at startup.
var QueryTimeout = 5 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, QueryTimeout)
}

// dbError converts a gorm error into an AppError. Deadline overruns become
// retryable DEPENDENCY_TIMEOUT errors; the driver error stays reachable via errors.As.
func dbError(err error) error {
	if err == nil {
		return nil
	}
	return models.WrapDependency("database", err)
}

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND AppError for resource.
func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return dbError(err)
}
