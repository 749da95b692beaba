package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"prisma-backend/internal/models"
	"prisma-backend/internal/services"
)

const maxErrorBody = 64 << 10

// decodeError turns a non-200 response into the matching typed error.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body models.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body = models.ErrorResponse{Error: fmt.Sprintf("server returned %s", resp.Status), Details: string(raw)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &services.RateLimitedError{Message: body.Error, Details: body.Details}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &services.MissingInputError{Message: body.Error}
	case body.Error == services.MissingAPIKeyMessage:
		return &services.ConfigurationError{Message: body.Error}
	default:
		return &services.GenerationError{Message: body.Error, Details: body.Details}
	}
}

// transportError classifies failures that never produced a response, or that
// cut a stream short.
func transportError(err error) error {
	var rl *services.RateLimitedError
	var ge *services.GenerationError
	if errors.As(err, &rl) || errors.As(err, &ge) {
		return err
	}
	return &services.GenerationError{Message: "Could not reach the PRISMA server", Details: err.Error(), Err: err}
}
