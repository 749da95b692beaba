package services

import (
	"testing"

	"github.com/google/generative-ai-go/genai"

	"prisma-backend/internal/models"
)

func TestBuildGeminiSchema_Exam(t *testing.T) {
	s := buildGeminiSchema(ExamSchema(3).Definition)
	if s.Type != genai.TypeObject {
		t.Fatalf("Expected object, got %v", s.Type)
	}
	questions := s.Properties["questions"]
	if questions == nil || questions.Type != genai.TypeArray || questions.Items == nil {
		t.Fatalf("Expected questions array, got %+v", questions)
	}
	answer := questions.Items.Properties["correctAnswer"]
	if answer == nil || len(answer.Enum) != 4 {
		t.Errorf("Expected enum of four letters, got %+v", answer)
	}
	options := questions.Items.Properties["options"]
	if options == nil || len(options.Required) != 4 {
		t.Errorf("Expected four required option keys, got %+v", options)
	}
	if len(questions.Items.Required) != 4 {
		t.Errorf("Expected four required question fields, got %v", questions.Items.Required)
	}
}

func TestDecodeAttachment(t *testing.T) {
	blob, err := decodeAttachment(models.Attachment{Type: "image", Image: "aGVsbG8="})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if blob.MIMEType != "image/jpeg" || string(blob.Data) != "hello" {
		t.Errorf("Unexpected blob %+v", blob)
	}

	blob, err = decodeAttachment(models.Attachment{Type: "image", Image: "data:image/png;base64,aGVsbG8="})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if blob.MIMEType != "image/png" {
		t.Errorf("Expected MIME type from data URL, got %q", blob.MIMEType)
	}

	if _, err := decodeAttachment(models.Attachment{Image: "data:image/png;base64"}); err == nil {
		t.Error("Expected error for data URL without payload")
	}
}

func TestToGeminiContents(t *testing.T) {
	out := toGeminiContents([]models.ChatMessage{
		{Role: models.RoleUser, Content: "hola"},
		{Role: models.RoleAssistant, Content: "  "},
		{Role: models.RoleAssistant, Content: "¿Qué tal?"},
	})
	if len(out) != 2 {
		t.Fatalf("Expected blank turns dropped, got %d", len(out))
	}
	if out[0].Role != "user" || out[1].Role != "model" {
		t.Errorf("Unexpected roles %q %q", out[0].Role, out[1].Role)
	}
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("Hola "), genai.Blob{MIMEType: "image/png"}, genai.Text("mundo")}}},
		{Content: nil},
	}}
	if got := extractText(resp); got != "Hola mundo" {
		t.Errorf("Unexpected text %q", got)
	}
}
