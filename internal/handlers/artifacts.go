package handlers

import (
	"context"
	"net/http"

	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
	"prisma-backend/internal/stream"
)

type artifactGenerator interface {
	Summary(ctx context.Context, req models.SummaryRequest) (*models.SummaryResult, error)
	StudyAids(ctx context.Context, req models.StudyAidsRequest) (*models.StudyAidsResult, error)
	Exam(ctx context.Context, req models.ExamRequest) (*models.ExamResult, error)
	Podcast(ctx context.Context, req models.PodcastRequest) (*models.PodcastResult, error)
	Translate(ctx context.Context, req models.TranslateRequest) (*models.TranslationResult, error)
	Essay(ctx context.Context, req models.EssayRequest) (*stream.TextStream, error)
	Chat(ctx context.Context, req models.ChatRequest) (*stream.TextStream, error)
}

// ArtifactHandler relays artifact requests to the generator. It keeps no
// state between requests.
type ArtifactHandler struct {
	gen artifactGenerator
	log *logger.Logger
}

func NewArtifactHandler(gen artifactGenerator, log *logger.Logger) *ArtifactHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ArtifactHandler{gen: gen, log: log}
}

func (h *ArtifactHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, err := h.gen.Chat(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	streamText(w, r, h.log, s)
}

func (h *ArtifactHandler) StudyAids(w http.ResponseWriter, r *http.Request) {
	var req models.StudyAidsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.gen.StudyAids(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ArtifactHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var req models.SummaryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.gen.Summary(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ArtifactHandler) Exam(w http.ResponseWriter, r *http.Request) {
	var req models.ExamRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.gen.Exam(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ArtifactHandler) Podcast(w http.ResponseWriter, r *http.Request) {
	var req models.PodcastRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.gen.Podcast(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ArtifactHandler) Essay(w http.ResponseWriter, r *http.Request) {
	var req models.EssayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, err := h.gen.Essay(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	streamText(w, r, h.log, s)
}

func (h *ArtifactHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.gen.Translate(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// streamText relays s as a chunked text/plain body. The first fragment is
// pulled before the status line is written so failures that happen before
// any output still get a proper error status. Later failures can only end
// the body early.
func streamText(w http.ResponseWriter, r *http.Request, log *logger.Logger, s *stream.TextStream) {
	defer s.Close()

	if !s.Next() {
		if err := s.Err(); err != nil {
			handleServiceError(w, r, log, err)
			return
		}
	}
	first := s.Text()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if first == "" {
		return
	}
	if _, err := w.Write([]byte(first)); err != nil {
		return
	}
	rc.Flush()

	for s.Next() {
		if _, err := w.Write([]byte(s.Text())); err != nil {
			log.Warn("client went away mid-stream", "path", r.URL.Path, "error", err.Error())
			return
		}
		rc.Flush()
	}
	if err := s.Err(); err != nil {
		log.Error("stream failed after first chunk", "path", r.URL.Path, "error", err.Error())
	}
}
