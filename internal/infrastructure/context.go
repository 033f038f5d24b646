package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a type for context keys
type contextKey string

const (
	runIDKey   contextKey = "run_id"
	attemptKey contextKey = "attempt"
	siteKey    contextKey = "site"
)

// NewRunID creates a new unique run ID using UUID v4
func NewRunID() string {
	return uuid.New().String()
}

// WithRunID adds a run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// EnsureRunID ensures the context has a run ID, generating one if needed
func EnsureRunID(ctx context.Context) context.Context {
	if GetRunID(ctx) == "" {
		return WithRunID(ctx, NewRunID())
	}
	return ctx
}

// GetRunID retrieves the run ID from context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(runIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithAttempt records the 1-based supervisor attempt in the context
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey, attempt)
}

// GetAttempt returns the supervisor attempt, or 0 outside an attempt
func GetAttempt(ctx context.Context) int {
	if attempt, ok := ctx.Value(attemptKey).(int); ok {
		return attempt
	}
	return 0
}

// WithSite records the site being processed
func WithSite(ctx context.Context, site string) context.Context {
	return context.WithValue(ctx, siteKey, site)
}

// GetSite returns the site being processed, if any
func GetSite(ctx context.Context) string {
	if site, ok := ctx.Value(siteKey).(string); ok {
		return site
	}
	return ""
}
