package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
	"prisma-backend/internal/services"
)

type ContentHandler struct {
	extractor *services.FileExtractService
	maxBytes  int64
	log       *logger.Logger
}

func NewContentHandler(extractor *services.FileExtractService, maxUploadMB int, log *logger.Logger) *ContentHandler {
	if log == nil {
		log = logger.Nop()
	}
	if maxUploadMB < 1 {
		maxUploadMB = 1
	}
	return &ContentHandler{extractor: extractor, maxBytes: int64(maxUploadMB) << 20, log: log}
}

// ExtractText reads a multipart "file" upload and returns its plain text.
// Nothing is stored.
func (h *ContentHandler) ExtractText(w http.ResponseWriter, r *http.Request) {
	limitMB := h.maxBytes >> 20
	if r.ContentLength > h.maxBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp(fmt.Sprintf("File size exceeds %dMB limit", limitMB), ""))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp(fmt.Sprintf("File size exceeds %dMB limit", limitMB), ""))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("No file provided", ""))
		return
	}
	defer file.Close()

	if !services.SupportedExtension(header.Filename) {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("File type not supported", "supported formats: .pdf, .docx, .txt"))
		return
	}

	text, err := h.extractor.Extract(header.Filename, file, header.Size)
	if errors.Is(err, services.ErrNoText) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("No text found in file", "scanned PDFs without a text layer are not supported"))
		return
	}
	if err != nil {
		h.log.Warn("text extraction failed", "file", header.Filename, "error", err.Error())
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("Could not extract text from file", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, models.ExtractTextResponse{
		Name:       header.Filename,
		Text:       text,
		Characters: utf8.RuneCountInString(text),
	})
}

func (h *ContentHandler) SupportedFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"formats": []map[string]string{
			{"extension": ".pdf", "mime_type": "application/pdf", "description": "PDF Document"},
			{"extension": ".docx", "mime_type": "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "description": "Word Document"},
			{"extension": ".txt", "mime_type": "text/plain", "description": "Plain Text"},
		},
		"max_size_mb": h.maxBytes >> 20,
	})
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
