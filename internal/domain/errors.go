package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors used across layers. The typed errors below match them
// through errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrCrossRestaurant = errors.New("cart belongs to a different restaurant")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrNetwork         = errors.New("network error")
	ErrAPI             = errors.New("remote api error")
	ErrStorage         = errors.New("storage error")
)

// ValidationError is returned for input that can never succeed. Never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// CrossRestaurantError rejects adding an item from one restaurant to a cart
// that already holds items from another.
type CrossRestaurantError struct {
	CartRestaurantID   int64
	CartRestaurantName string
	ItemRestaurantID   int64
}

func (e *CrossRestaurantError) Error() string {
	name := e.CartRestaurantName
	if name == "" {
		name = fmt.Sprintf("restaurant %d", e.CartRestaurantID)
	}
	return fmt.Sprintf("your cart already has items from %s; clear it before ordering from restaurant %d", name, e.ItemRestaurantID)
}

func (e *CrossRestaurantError) Is(target error) bool {
	return target == ErrCrossRestaurant || target == ErrValidation
}

// RateLimitError means the client-side limiter rejected a request before it
// was dispatched.
type RateLimitError struct {
	Window     string // "minute" or "hour"
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many requests: %d per %s exceeded, retry in %s", e.Limit, e.Window, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// NetworkError wraps a transport failure (connection refused, timeout...).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// APIError is a non-success answer from a remote endpoint.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	// Permanent marks answers that will not change on retry (blocked
	// prompts, malformed requests).
	Permanent bool
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Is matches ErrAPI, and ErrNotFound for 404 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrAPI || (target == ErrNotFound && e.StatusCode == http.StatusNotFound)
}

// Retryable reports whether repeating the call may succeed.
func (e *APIError) Retryable() bool {
	if e.Permanent {
		return false
	}
	if e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500 {
		return true
	}
	return false
}

// StorageError wraps a local durable storage failure. Callers log it and
// treat it as a cache miss.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}
func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// IsRetryable classifies an error for the retry loop. Only transient
// network and API failures qualify.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrEmptyMessage) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return errors.Is(err, ErrNetwork)
}
