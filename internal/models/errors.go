package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeLimitReached      = "LIMIT_REACHED"
	CodeEventExpired      = "EVENT_EXPIRED"
	CodeInternal          = "INTERNAL_ERROR"
	CodeDependencyTimeout = "DEPENDENCY_TIMEOUT"
	CodeHashExhausted     = "HASH_EXHAUSTED"
	CodePaymentFailed     = "PAYMENT_FAILED"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code      string
	Message   string
	Err       error
	Retryable bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewForbiddenError is returned when the actor is authenticated but does not own the resource.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewLimitReachedError(used, limit int64) *AppError {
	return &AppError{
		Code:    CodeLimitReached,
		Message: fmt.Sprintf("Upload limit reached (%d/%d)", used, limit),
	}
}

func NewEventExpiredError(hash string) *AppError {
	return &AppError{
		Code:    CodeEventExpired,
		Message: fmt.Sprintf("Event %s is no longer accepting uploads", hash),
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// NewTimeoutError wraps a deadline overrun on an external call. Callers may retry.
func NewTimeoutError(dependency string, err error) *AppError {
	return &AppError{
		Code:      CodeDependencyTimeout,
		Message:   fmt.Sprintf("%s call timed out", dependency),
		Err:       err,
		Retryable: true,
	}
}

func NewHashExhaustedError(attempts int) *AppError {
	return &AppError{
		Code:    CodeHashExhausted,
		Message: fmt.Sprintf("Could not allocate a unique event hash after %d attempts", attempts),
	}
}

// NewPaymentFailedError is returned when the payment provider declines a charge.
func NewPaymentFailedError(reason string) *AppError {
	if reason == "" {
		reason = "Payment failed"
	}
	return &AppError{
		Code:    CodePaymentFailed,
		Message: reason,
	}
}

// WrapDependency converts an error from an external collaborator into an AppError.
// Deadline overruns become retryable timeouts; AppErrors pass through untouched.
func WrapDependency(dependency string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(dependency, err)
	}
	return NewInternalError(fmt.Errorf("%s: %w", dependency, err))
}

// IsRetryable reports whether err is marked safe to retry.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusFor maps an error to the HTTP status used in responses.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeLimitReached:
		return fiber.StatusConflict
	case CodeEventExpired:
		return fiber.StatusGone
	case CodeDependencyTimeout:
		return fiber.StatusServiceUnavailable
	case CodePaymentFailed:
		return fiber.StatusPaymentRequired
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// Respond writes err using the status derived from its code.
func Respond(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusFor(err), err)
}
