package services

import (
	"strings"

	"prisma-backend/internal/models"
)

const (
	transcriptStudent = "Alumno"
	transcriptTutor   = "Profesor"
)

// ResolveContext returns the study material generators work from: the
// document's extracted text, or else its chat transcript, or else "". An empty
// result means generation is unavailable for the document.
func ResolveContext(doc *models.Document) string {
	if doc == nil {
		return ""
	}
	if strings.TrimSpace(doc.Text) != "" {
		return doc.Text
	}
	return Transcript(doc.ChatHistory)
}

// Transcript renders chat turns one per line, in order, labelled by role.
func Transcript(history []models.ChatMessage) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		label := transcriptTutor
		if m.Role == models.RoleUser {
			label = transcriptStudent
		}
		lines = append(lines, label+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
