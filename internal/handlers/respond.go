package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
	"prisma-backend/internal/services"
)

const msgInvalidBody = "Invalid request body"

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message, details string) models.ErrorResponse {
	return models.ErrorResponse{Error: message, Details: details}
}

// StatusFor maps the generation error taxonomy onto an HTTP status and body.
func StatusFor(err error) (int, models.ErrorResponse) {
	var missing *services.MissingInputError
	var config *services.ConfigurationError
	var limited *services.RateLimitedError
	var failed *services.GenerationError

	switch {
	case errors.As(err, &missing):
		return http.StatusBadRequest, errorResp(missing.Message, "")
	case errors.As(err, &config):
		return http.StatusInternalServerError, errorResp(config.Message, "")
	case errors.As(err, &limited):
		return http.StatusTooManyRequests, errorResp(limited.Message, limited.Details)
	case errors.As(err, &failed):
		return http.StatusInternalServerError, errorResp(failed.Message, failed.Details)
	default:
		return http.StatusInternalServerError, errorResp("Internal server error", err.Error())
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status, body := StatusFor(err)
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		log.Error("request failed", "path", r.URL.Path, "status", status, "error", err.Error())
	}
	writeJSON(w, status, body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(msgInvalidBody, ""))
		return false
	}
	return true
}
