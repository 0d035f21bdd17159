// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"
)

// RetryConfig is the backoff policy for remote calls.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	Jitter          float64 // fraction of the wait, 0 to 1
	// RetryIf decides for errors not marked with RetryableError or
	// NonRetryableError. Nil retries only marked errors.
	RetryIf func(error) bool
}

// DefaultRetryConfig returns the retry policy used by remote connectors
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		Jitter:          0.1,
		RetryIf:         DefaultRetryCondition,
	}
}

// StatusError is a non-2xx answer from a remote repository.
type StatusError struct {
	StatusCode int
	// RetryAfter is taken from the Retry-After header, in seconds form.
	RetryAfter time.Duration
}

// NewStatusError builds a StatusError from a response.
func NewStatusError(resp *http.Response) *StatusError {
	e := &StatusError{StatusCode: resp.StatusCode}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		e.RetryAfter = time.Duration(secs) * time.Second
	}
	return e
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether the status is worth another attempt: 408, 429
// and the gateway and availability errors.
func (e *StatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DefaultRetryCondition retries temporary status errors, network timeouts
// and connections that were refused, reset or cut short. Cancellation is
// never retried.
func DefaultRetryCondition(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// RetryableError marks an error as transient regardless of RetryIf.
type RetryableError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// NonRetryableError marks an error as final regardless of RetryIf.
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string { return e.Err.Error() }
func (e *NonRetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a RetryableError
func IsRetryable(err error) bool {
	var r *RetryableError
	return errors.As(err, &r)
}

// IsNonRetryable reports whether err carries a NonRetryableError
func IsNonRetryable(err error) bool {
	var n *NonRetryableError
	return errors.As(err, &n)
}

// RetryError is returned once every attempt failed with a transient error.
type RetryError struct {
	Err      error
	Attempts int
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

func (cfg *RetryConfig) shouldRetry(err error) bool {
	switch {
	case IsNonRetryable(err):
		return false
	case IsRetryable(err):
		return true
	case cfg.RetryIf != nil:
		return cfg.RetryIf(err)
	}
	return false
}

// wait returns the pause before the next attempt. A server-provided
// Retry-After replaces the backoff interval.
func (cfg *RetryConfig) wait(interval time.Duration, err error) time.Duration {
	d := interval
	var marked *RetryableError
	var status *StatusError
	switch {
	case errors.As(err, &marked) && marked.RetryAfter > 0:
		d = marked.RetryAfter
	case errors.As(err, &status) && status.RetryAfter > 0:
		d = status.RetryAfter
	}
	if cfg.Jitter > 0 {
		d += time.Duration(float64(d) * cfg.Jitter * (rand.Float64()*2 - 1))
	}
	if cfg.MaxInterval > 0 && d > cfg.MaxInterval {
		d = cfg.MaxInterval
	}
	return d
}

// RetryFunc is one attempt of a retried operation.
type RetryFunc[T any] func() (T, error)

// RetryWithBackoff runs fn until it succeeds, fails with an error that is
// not transient, or runs out of attempts. Final errors are returned
// unchanged; exhausted attempts return a *RetryError.
func RetryWithBackoff[T any](ctx context.Context, cfg *RetryConfig, fn RetryFunc[T]) (T, error) {
	var zero T
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	interval := cfg.InitialInterval
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !cfg.shouldRetry(err) {
			return zero, err
		}
		if attempt > cfg.MaxRetries {
			return zero, &RetryError{Err: err, Attempts: attempt}
		}

		timer := time.NewTimer(cfg.wait(interval, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		interval = time.Duration(float64(interval) * cfg.Multiplier)
		if cfg.MaxInterval > 0 && interval > cfg.MaxInterval {
			interval = cfg.MaxInterval
		}
	}
}

// RetryVoid is RetryWithBackoff for calls without a result.
func RetryVoid(ctx context.Context, cfg *RetryConfig, fn func() error) error {
	_, err := RetryWithBackoff(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
