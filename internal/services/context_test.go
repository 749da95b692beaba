package services

import (
	"testing"

	"prisma-backend/internal/models"
)

func TestResolveContext(t *testing.T) {
	chat := []models.ChatMessage{
		{Role: models.RoleUser, Content: "¿Qué es una célula?"},
		{Role: models.RoleAssistant, Content: "La unidad básica de la vida."},
		{Role: models.RoleUser, Content: "Gracias"},
	}

	tests := []struct {
		name     string
		doc      *models.Document
		expected string
	}{
		{"nil document", nil, ""},
		{"text wins", &models.Document{Text: "Cell biology notes", ChatHistory: chat}, "Cell biology notes"},
		{"blank text falls back to transcript", &models.Document{Text: "  \n", ChatHistory: chat},
			"Alumno: ¿Qué es una célula?\nProfesor: La unidad básica de la vida.\nAlumno: Gracias"},
		{"nothing available", &models.Document{}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveContext(tc.doc)
			if got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestResolveContext_DoesNotMutate(t *testing.T) {
	doc := &models.Document{ChatHistory: []models.ChatMessage{{Role: models.RoleUser, Content: "hola"}}}
	ResolveContext(doc)
	if doc.Text != "" || len(doc.ChatHistory) != 1 {
		t.Errorf("Document was modified: %+v", doc)
	}
}
