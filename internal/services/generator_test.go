package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/api/googleapi"

	"prisma-backend/internal/models"
	"prisma-backend/internal/stream"
)

func examJSON(n int, mutate func(i int, q map[string]any)) string {
	questions := make([]map[string]any, n)
	for i := range questions {
		q := map[string]any{
			"question":      fmt.Sprintf("Question %d?", i+1),
			"options":       map[string]string{"A": "one", "B": "two", "C": "three", "D": "four"},
			"correctAnswer": "B",
			"explanation":   "Because.",
		}
		if mutate != nil {
			mutate(i, q)
		}
		questions[i] = q
	}
	b, _ := json.Marshal(map[string]any{"questions": questions})
	return string(b)
}

func TestGenerator_BlankInputNeverCallsModel(t *testing.T) {
	mock := NewMockModelClient()
	g := NewGenerator(mock, nil)
	ctx := context.Background()

	checks := []struct {
		name    string
		call    func() error
		message string
	}{
		{"summary", func() error { _, err := g.Summary(ctx, models.SummaryRequest{Context: "  "}); return err }, "Context is required"},
		{"studyaids", func() error { _, err := g.StudyAids(ctx, models.StudyAidsRequest{}); return err }, "Context is required"},
		{"exam", func() error { _, err := g.Exam(ctx, models.ExamRequest{Context: "\n\t"}); return err }, "Context is required"},
		{"podcast", func() error { _, err := g.Podcast(ctx, models.PodcastRequest{}); return err }, "Context is required"},
		{"essay", func() error { _, err := g.Essay(ctx, models.EssayRequest{Context: "material"}); return err }, "Topic is required"},
		{"translate", func() error {
			_, err := g.Translate(ctx, models.TranslateRequest{Text: "hola"})
			return err
		}, "Text and target language are required"},
		{"chat", func() error { _, err := g.Chat(ctx, models.ChatRequest{Context: "doc"}); return err }, "Messages are required"},
		{"chat ending with assistant", func() error {
			_, err := g.Chat(ctx, models.ChatRequest{Messages: []models.ChatMessage{{Role: models.RoleAssistant, Content: "hi"}}})
			return err
		}, "Messages are required"},
		{"exam count too large", func() error {
			_, err := g.Exam(ctx, models.ExamRequest{Context: "doc", NumQuestions: 51})
			return err
		}, "numQuestions must be between 1 and 50"},
	}

	for _, tc := range checks {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			var missing *MissingInputError
			if !errors.As(err, &missing) {
				t.Fatalf("Expected MissingInputError, got %v", err)
			}
			if missing.Message != tc.message {
				t.Errorf("Expected message %q, got %q", tc.message, missing.Message)
			}
		})
	}

	if mock.CallCount() != 0 {
		t.Errorf("Expected no model calls, got %d", mock.CallCount())
	}
}

func TestGenerator_MissingClientIsConfigurationError(t *testing.T) {
	g := NewGenerator(nil, nil)

	_, err := g.Summary(context.Background(), models.SummaryRequest{Context: "notes"})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}
	if cfgErr.Message != "Server configuration error: Missing API Key" {
		t.Errorf("Unexpected message %q", cfgErr.Message)
	}

	// Input validation still wins over configuration.
	_, err = g.Summary(context.Background(), models.SummaryRequest{})
	var missing *MissingInputError
	if !errors.As(err, &missing) {
		t.Errorf("Expected MissingInputError first, got %v", err)
	}
}

func TestGenerator_Summary(t *testing.T) {
	mock := NewMockModelClient(MockResponse{
		Content: "```json\n{\"briefSummary\":\"Cells are small.\",\"keyTakeaways\":[\"a\",\"b\",\"c\"],\"detailedSummary\":\"Long text.\"}\n```",
	})
	g := NewGenerator(mock, nil)

	got, err := g.Summary(context.Background(), models.SummaryRequest{Context: "el texto de la clase sobre la célula"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.BriefSummary != "Cells are small." || len(got.KeyTakeaways) != 3 {
		t.Errorf("Unexpected summary %+v", got)
	}
	if !strings.HasPrefix(mock.Calls[0].System, "CRITICAL: You MUST respond in Spanish.") {
		t.Errorf("Expected Spanish directive, got %q", mock.Calls[0].System)
	}
}

func TestGenerator_SchemaViolationIsGenerationError(t *testing.T) {
	mock := NewMockModelClient(
		MockResponse{Content: `{"briefSummary":"x"}`},
		MockResponse{Content: `not json`},
		MockResponse{Content: `{"mindMap":"","flashcards":[]}`},
	)
	g := NewGenerator(mock, nil)
	ctx := context.Background()

	var genErr *GenerationError
	if _, err := g.Summary(ctx, models.SummaryRequest{Context: "notes"}); !errors.As(err, &genErr) {
		t.Errorf("Expected GenerationError for missing fields, got %v", err)
	}
	if _, err := g.Summary(ctx, models.SummaryRequest{Context: "notes"}); !errors.As(err, &genErr) {
		t.Errorf("Expected GenerationError for invalid JSON, got %v", err)
	}
	if _, err := g.StudyAids(ctx, models.StudyAidsRequest{Context: "notes"}); !errors.As(err, &genErr) {
		t.Errorf("Expected GenerationError for empty study aids, got %v", err)
	}
	if genErr.Message != "Failed to generate study aids." {
		t.Errorf("Unexpected message %q", genErr.Message)
	}
	if mock.CallCount() != 3 {
		t.Errorf("Expected exactly one attempt per call, got %d calls", mock.CallCount())
	}
}

func TestGenerator_ExamExactCount(t *testing.T) {
	mock := NewMockModelClient(MockResponse{Content: examJSON(10, nil)})
	g := NewGenerator(mock, nil)

	got, err := g.Exam(context.Background(), models.ExamRequest{Context: "the notes of the class"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got.Questions) != 10 {
		t.Fatalf("Expected 10 questions, got %d", len(got.Questions))
	}
	for i, q := range got.Questions {
		if _, ok := q.Options.Get(q.CorrectAnswer); !ok {
			t.Errorf("Question %d has invalid answer %q", i, q.CorrectAnswer)
		}
	}
}

func TestGenerator_ExamRejectsBadOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"too few", examJSON(9, nil)},
		{"too many", examJSON(11, nil)},
		{"invalid answer", examJSON(10, func(i int, q map[string]any) {
			if i == 4 {
				q["correctAnswer"] = "E"
			}
		})},
		{"missing option", examJSON(10, func(i int, q map[string]any) {
			if i == 2 {
				q["options"] = map[string]string{"A": "one", "B": "two", "C": "three"}
			}
		})},
		{"blank option", examJSON(10, func(i int, q map[string]any) {
			q["options"] = map[string]string{"A": "one", "B": "two", "C": "three", "D": ""}
		})},
		{"extra option", examJSON(10, func(i int, q map[string]any) {
			q["options"] = map[string]string{"A": "1", "B": "2", "C": "3", "D": "4", "E": "5"}
		})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGenerator(NewMockModelClient(MockResponse{Content: tc.content}), nil)
			got, err := g.Exam(context.Background(), models.ExamRequest{Context: "notes", NumQuestions: 10})
			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("Expected GenerationError, got %v", err)
			}
			if got != nil {
				t.Error("Expected no partial result")
			}
		})
	}
}

func TestCheckExam(t *testing.T) {
	valid := models.ExamResult{Questions: []models.ExamQuestion{{
		Question:      "Q?",
		Options:       models.ExamOptions{A: "1", B: "2", C: "3", D: "4"},
		CorrectAnswer: "D",
	}}}
	if err := CheckExam(valid, 1); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := CheckExam(valid, 2); err == nil {
		t.Error("Expected count mismatch error")
	}
	valid.Questions[0].CorrectAnswer = "a"
	if err := CheckExam(valid, 1); err == nil {
		t.Error("Expected lowercase answer to be rejected")
	}
}

func TestGenerator_Podcast(t *testing.T) {
	script := strings.Repeat("ñ", 301)
	g := NewGenerator(NewMockModelClient(MockResponse{Content: "  " + script + "\n"}), nil)

	got, err := g.Podcast(context.Background(), models.PodcastRequest{Context: "notes"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Script != script {
		t.Error("Expected trimmed script")
	}
	if got.EstimatedDuration != 3 {
		t.Errorf("Expected 3 minutes for 301 runes, got %d", got.EstimatedDuration)
	}
}

func TestEstimateDuration(t *testing.T) {
	tests := map[int]int{0: 0, 1: 1, 150: 1, 151: 2, 1500: 10}
	for n, expected := range tests {
		if got := EstimateDuration(strings.Repeat("a", n)); got != expected {
			t.Errorf("EstimateDuration(%d runes) = %d, expected %d", n, got, expected)
		}
	}
}

func TestGenerator_RateLimitClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"quota message", errors.New("googleapi: Error 429: Quota exceeded for metric")},
		{"resource exhausted", errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED")},
		{"api status", &googleapi.Error{Code: 429, Message: "slow down"}},
		{"wrapped api status", fmt.Errorf("send: %w", &googleapi.Error{Code: 429})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGenerator(NewMockModelClient(MockResponse{Err: tc.err}), nil)
			_, err := g.Podcast(context.Background(), models.PodcastRequest{Context: "notes"})
			var rl *RateLimitedError
			if !errors.As(err, &rl) {
				t.Fatalf("Expected RateLimitedError, got %v", err)
			}
			if rl.Details == "" {
				t.Error("Expected provider details")
			}
		})
	}
}

func TestGenerator_OtherFailuresAreGenerationErrors(t *testing.T) {
	g := NewGenerator(NewMockModelClient(MockResponse{Err: errors.New("connection reset")}), nil)
	_, err := g.Translate(context.Background(), models.TranslateRequest{Text: "hola", TargetLanguage: "en"})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected GenerationError, got %v", err)
	}
	if genErr.Message != "Failed to translate text." || genErr.Details != "connection reset" {
		t.Errorf("Unexpected error %+v", genErr)
	}
}

func TestGenerator_Translate(t *testing.T) {
	mock := NewMockModelClient(MockResponse{Content: "Hello world"}, MockResponse{Content: "Bonjour"})
	g := NewGenerator(mock, nil)

	got, err := g.Translate(context.Background(), models.TranslateRequest{Text: "Hola mundo", TargetLanguage: "en"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Translation != "Hello world" || got.DetectedLanguage != "auto" {
		t.Errorf("Unexpected result %+v", got)
	}

	got, err = g.Translate(context.Background(), models.TranslateRequest{Text: "Hello", TargetLanguage: "fr", SourceLanguage: "en"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.DetectedLanguage != "en" {
		t.Errorf("Expected source language echoed, got %q", got.DetectedLanguage)
	}
	if !strings.HasPrefix(mock.Calls[1].System, "CRITICAL: You MUST respond in French.") {
		t.Errorf("Expected target language directive, got %q", mock.Calls[1].System)
	}
}

func TestGenerator_EssayStreams(t *testing.T) {
	mock := NewMockModelClient(MockResponse{Chunks: []string{"Intro. ", "Body. ", "End."}})
	g := NewGenerator(mock, nil)

	s, err := g.Essay(context.Background(), models.EssayRequest{Topic: "The water cycle"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text, err := stream.Collect(s)
	if err != nil {
		t.Fatalf("Unexpected stream error: %v", err)
	}
	if text != "Intro. Body. End." {
		t.Errorf("Unexpected essay %q", text)
	}
	if !strings.Contains(mock.Calls[0].User, "Topic: The water cycle") {
		t.Errorf("Unexpected user prompt %q", mock.Calls[0].User)
	}
}

func TestGenerator_StreamFailureIsClassified(t *testing.T) {
	mock := NewMockModelClient(MockResponse{Chunks: []string{"partial"}, StreamErr: errors.New("quota exceeded")})
	g := NewGenerator(mock, nil)

	s, err := g.Essay(context.Background(), models.EssayRequest{Topic: "Cells"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text, err := stream.Collect(s)
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("Expected RateLimitedError mid-stream, got %v", err)
	}
	if text != "partial" {
		t.Errorf("Expected partial text, got %q", text)
	}
}

func TestGenerator_Chat(t *testing.T) {
	mock := NewMockModelClient(MockResponse{Chunks: []string{"¿Qué ", "opinas?"}})
	g := NewGenerator(mock, nil)

	req := models.ChatRequest{
		Context: "",
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: "hello there"},
			{Role: models.RoleAssistant, Content: "Hi!"},
			{Role: models.RoleUser, Content: "what is the cell in the body"},
		},
		Data: []models.Attachment{{Type: "image", Image: "aGVsbG8=", MimeType: "image/png"}},
	}
	s, err := g.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text, err := stream.Collect(s)
	if err != nil || text != "¿Qué opinas?" {
		t.Fatalf("Unexpected reply %q, %v", text, err)
	}

	if mock.Calls[0].User != "what is the cell in the body" {
		t.Errorf("Expected last message as user turn, got %q", mock.Calls[0].User)
	}
	if len(mock.Histories[0]) != 2 {
		t.Errorf("Expected two history turns, got %d", len(mock.Histories[0]))
	}
	if !strings.HasPrefix(mock.Calls[0].System, "CRITICAL: You MUST respond in English.") {
		t.Errorf("Expected language from the message when context is empty: %q", mock.Calls[0].System)
	}
}

func TestGenerator_ChatRejectsBadAttachment(t *testing.T) {
	mock := NewMockModelClient()
	g := NewGenerator(mock, nil)

	_, err := g.Chat(context.Background(), models.ChatRequest{
		Messages: []models.ChatMessage{{Role: models.RoleUser, Content: "look"}},
		Data:     []models.Attachment{{Type: "image", Image: "%%%"}},
	})
	var missing *MissingInputError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingInputError, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Error("Expected no model call")
	}
}

func TestGenerator_CustomLanguageDetector(t *testing.T) {
	mock := NewMockModelClient(MockResponse{Content: "script"})
	g := NewGenerator(mock, nil, WithLanguageDetector(func(string) Language { return English }))

	if _, err := g.Podcast(context.Background(), models.PodcastRequest{Context: "el texto de la clase"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(mock.Calls[0].System, "CRITICAL: You MUST respond in English.") {
		t.Errorf("Expected injected detector to decide language")
	}
}
