package services

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"google.golang.org/api/googleapi"

	"prisma-backend/internal/models"
)

const (
	MissingAPIKeyMessage = "Server configuration error: Missing API Key"
	RateLimitedMessage   = "API rate limit reached. Please wait a moment and try again."
)

// MissingInputError is returned before any model call when required input is
// blank or out of range.
type MissingInputError struct {
	Message string
}

func (e *MissingInputError) Error() string { return e.Message }

// ConfigurationError means the server cannot reach the model at all, usually
// because no API key is configured. It is never retried.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// RateLimitedError carries a provider quota signal. Callers should back off
// and try again later; nothing retries automatically.
type RateLimitedError struct {
	Message string
	Details string
	Err     error
}

func (e *RateLimitedError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// GenerationError covers every other provider or output failure.
type GenerationError struct {
	Message string
	Details string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error { return e.Err }

func failureMessage(kind models.ArtifactKind) string {
	switch kind {
	case models.KindSummary:
		return "Failed to generate summary."
	case models.KindStudyAids:
		return "Failed to generate study aids."
	case models.KindExam:
		return "Failed to generate exam."
	case models.KindPodcast:
		return "Failed to generate podcast script."
	case models.KindEssay:
		return "Failed to generate essay."
	case models.KindTranslation:
		return "Failed to translate text."
	default:
		return "Failed to generate response."
	}
}

func newGenerationError(kind models.ArtifactKind, details string, err error) *GenerationError {
	return &GenerationError{Message: failureMessage(kind), Details: details, Err: err}
}

var rateLimitStatus = regexp.MustCompile(`\b429\b`)

var rateLimitMarkers = []string{"quota", "rate limit", "ratelimit", "resource_exhausted", "resource exhausted", "too many requests"}

// classifyProviderError maps a provider failure onto the error taxonomy.
// Errors that are already classified pass through unchanged.
func classifyProviderError(kind models.ArtifactKind, err error) error {
	if err == nil {
		return nil
	}

	var rl *RateLimitedError
	var ge *GenerationError
	var ce *ConfigurationError
	if errors.As(err, &rl) || errors.As(err, &ge) || errors.As(err, &ce) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newGenerationError(kind, "request deadline exceeded", err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return &RateLimitedError{Message: RateLimitedMessage, Details: err.Error(), Err: err}
	}

	msg := err.Error()
	if IsRateLimitMessage(msg) {
		return &RateLimitedError{Message: RateLimitedMessage, Details: msg, Err: err}
	}
	return newGenerationError(kind, msg, err)
}

// IsRateLimitMessage reports whether a provider message signals a quota or
// rate limit.
func IsRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, m := range rateLimitMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return rateLimitStatus.MatchString(lower)
}
