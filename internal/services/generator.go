package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
	"prisma-backend/internal/stream"
)

const podcastRunesPerMinute = 150

var (
	errContextRequired = &MissingInputError{Message: "Context is required"}
	errTopicRequired   = &MissingInputError{Message: "Topic is required"}
	errTextRequired    = &MissingInputError{Message: "Text and target language are required"}
	errMessageRequired = &MissingInputError{Message: "Messages are required"}
)

// Generator turns source context into study artifacts. It holds no per-request
// state and is safe for concurrent use.
type Generator struct {
	client ModelClient
	detect LanguageDetector
	log    *logger.Logger
}

type GeneratorOption func(*Generator)

// WithLanguageDetector swaps the language heuristic.
func WithLanguageDetector(d LanguageDetector) GeneratorOption {
	return func(g *Generator) { g.detect = d }
}

// NewGenerator builds a generator. A nil client is allowed: every request
// that passes validation then fails with a ConfigurationError.
func NewGenerator(client ModelClient, log *logger.Logger, opts ...GeneratorOption) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	g := &Generator{client: client, detect: DetectLanguage, log: log}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) begin(kind models.ArtifactKind) *Lifecycle {
	lc := NewLifecycle(kind, g.log)
	lc.must(StateValidating)
	return lc
}

// dispatch performs the checks shared by every kind once input is valid.
func (g *Generator) dispatch(lc *Lifecycle) error {
	if g.client == nil {
		return lc.reject(&ConfigurationError{Message: MissingAPIKeyMessage})
	}
	lc.must(StateDispatched)
	return nil
}

func (g *Generator) generateJSON(ctx context.Context, lc *Lifecycle, kind models.ArtifactKind, prompt Prompt, schema *Schema, out any) error {
	raw, err := g.client.GenerateJSON(ctx, prompt, schema)
	if err != nil {
		return lc.fail(classifyProviderError(kind, err))
	}
	raw = json.RawMessage(stripJSONFence(string(raw)))
	if err := validateResponse(schema, raw); err != nil {
		return lc.fail(newGenerationError(kind, err.Error(), err))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return lc.fail(newGenerationError(kind, err.Error(), err))
	}
	return nil
}

func (g *Generator) generateText(ctx context.Context, lc *Lifecycle, kind models.ArtifactKind, prompt Prompt) (string, error) {
	text, err := g.client.GenerateText(ctx, prompt)
	if err != nil {
		return "", lc.fail(classifyProviderError(kind, err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", lc.fail(newGenerationError(kind, "empty response", nil))
	}
	return text, nil
}

func (g *Generator) Summary(ctx context.Context, req models.SummaryRequest) (*models.SummaryResult, error) {
	lc := g.begin(models.KindSummary)
	if isBlank(req.Context) {
		return nil, lc.reject(errContextRequired)
	}
	if err := g.dispatch(lc); err != nil {
		return nil, err
	}

	prompt, err := BuildPrompt(models.KindSummary, PromptParams{Context: req.Context}, g.detect(req.Context))
	if err != nil {
		return nil, lc.fail(newGenerationError(models.KindSummary, err.Error(), err))
	}

	var out models.SummaryResult
	if err := g.generateJSON(ctx, lc, models.KindSummary, prompt, SummarySchema(), &out); err != nil {
		return nil, err
	}
	lc.must(StateCompleted)
	return &out, nil
}

func (g *Generator) StudyAids(ctx context.Context, req models.StudyAidsRequest) (*models.StudyAidsResult, error) {
	lc := g.begin(models.KindStudyAids)
	if isBlank(req.Context) {
		return nil, lc.reject(errContextRequired)
	}
	if err := g.dispatch(lc); err != nil {
		return nil, err
	}

	prompt, err := BuildPrompt(models.KindStudyAids, PromptParams{Context: req.Context}, g.detect(req.Context))
	if err != nil {
		return nil, lc.fail(newGenerationError(models.KindStudyAids, err.Error(), err))
	}

	var out models.StudyAidsResult
	if err := g.generateJSON(ctx, lc, models.KindStudyAids, prompt, StudyAidsSchema(), &out); err != nil {
		return nil, err
	}
	lc.must(StateCompleted)
	return &out, nil
}

// Exam returns exactly req.NumQuestions questions (10 when unset) or an error;
// a short or malformed list is never returned.
func (g *Generator) Exam(ctx context.Context, req models.ExamRequest) (*models.ExamResult, error) {
	lc := g.begin(models.KindExam)
	if isBlank(req.Context) {
		return nil, lc.reject(errContextRequired)
	}
	n := req.NumQuestions
	if n == 0 {
		n = DefaultNumQuestions
	}
	if n < 1 || n > MaxNumQuestions {
		return nil, lc.reject(&MissingInputError{Message: fmt.Sprintf("numQuestions must be between 1 and %d", MaxNumQuestions)})
	}
	if err := g.dispatch(lc); err != nil {
		return nil, err
	}

	prompt, err := BuildPrompt(models.KindExam, PromptParams{Context: req.Context, NumQuestions: n}, g.detect(req.Context))
	if err != nil {
		return nil, lc.fail(newGenerationError(models.KindExam, err.Error(), err))
	}

	var out models.ExamResult
	if err := g.generateJSON(ctx, lc, models.KindExam, prompt, ExamSchema(n), &out); err != nil {
		return nil, err
	}
	if err := CheckExam(out, n); err != nil {
		return nil, lc.fail(newGenerationError(models.KindExam, err.Error(), err))
	}
	lc.must(StateCompleted)
	return &out, nil
}

// CheckExam verifies the question count and that every question has four
// non-empty options and a correct answer among them.
func CheckExam(exam models.ExamResult, n int) error {
	if len(exam.Questions) != n {
		return fmt.Errorf("expected %d questions, got %d", n, len(exam.Questions))
	}
	for i, q := range exam.Questions {
		if isBlank(q.Question) {
			return fmt.Errorf("question %d has no text", i+1)
		}
		for _, k := range models.OptionKeys {
			if text, _ := q.Options.Get(k); isBlank(text) {
				return fmt.Errorf("question %d is missing option %s", i+1, k)
			}
		}
		if _, ok := q.Options.Get(q.CorrectAnswer); !ok {
			return fmt.Errorf("question %d has invalid correct answer %q", i+1, q.CorrectAnswer)
		}
	}
	return nil
}

func (g *Generator) Podcast(ctx context.Context, req models.PodcastRequest) (*models.PodcastResult, error) {
	lc := g.begin(models.KindPodcast)
	if isBlank(req.Context) {
		return nil, lc.reject(errContextRequired)
	}
	if err := g.dispatch(lc); err != nil {
		return nil, err
	}

	prompt, err := BuildPrompt(models.KindPodcast, PromptParams{Context: req.Context}, g.detect(req.Context))
	if err != nil {
		return nil, lc.fail(newGenerationError(models.KindPodcast, err.Error(), err))
	}

	script, err := g.generateText(ctx, lc, models.KindPodcast, prompt)
	if err != nil {
		return nil, err
	}
	lc.must(StateCompleted)
	return &models.PodcastResult{Script: script, EstimatedDuration: EstimateDuration(script)}, nil
}

// EstimateDuration converts a script into listening minutes, rounding up.
func EstimateDuration(script string) int {
	n := utf8.RuneCountInString(script)
	return (n + podcastRunesPerMinute - 1) / podcastRunesPerMinute
}

func (g *Generator) Translate(ctx context.Context, req models.TranslateRequest) (*models.TranslationResult, error) {
	lc := g.begin(models.KindTranslation)
	if isBlank(req.Text) || isBlank(req.TargetLanguage) {
		return nil, lc.reject(errTextRequired)
	}
	source := strings.TrimSpace(req.SourceLanguage)
	if source == "" {
		source = "auto"
	}
	if err := g.dispatch(lc); err != nil {
		return nil, err
	}

	params := PromptParams{Text: req.Text, TargetLanguage: req.TargetLanguage, SourceLanguage: source}
	prompt, err := BuildPrompt(models.KindTranslation, params, g.detect(req.Text))
	if err != nil {
		return nil, lc.fail(newGenerationError(models.KindTranslation, err.Error(), err))
	}

	translation, err := g.generateText(ctx, lc, models.KindTranslation, prompt)
	if err != nil {
		return nil, err
	}
	lc.must(StateCompleted)
	return &models.TranslationResult{Translation: translation, DetectedLanguage: source}, nil
}

// Essay streams an essay on req.Topic. Context is optional.
func (g *Generator) Essay(ctx context.Context, req models.EssayRequest) (*stream.TextStream, error) {
	lc := g.begin(models.KindEssay)
	if isBlank(req.Topic) {
		return nil, lc.reject(errTopicRequired)
	}
	if err := g.dispatch(lc); err != nil {
		return nil, err
	}

	params := PromptParams{Topic: req.Topic, Context: req.Context, EssayType: req.EssayType, WordCount: req.WordCount}
	prompt, err := BuildPrompt(models.KindEssay, params, g.detect(req.Topic+" "+req.Context))
	if err != nil {
		return nil, lc.fail(newGenerationError(models.KindEssay, err.Error(), err))
	}

	s, err := g.client.StreamText(ctx, prompt, nil, nil)
	if err != nil {
		return nil, lc.fail(classifyProviderError(models.KindEssay, err))
	}
	return g.track(lc, models.KindEssay, s), nil
}

// Chat streams the tutor's reply to the last user message. The answer language
// follows the document context, or the message itself when there is none.
func (g *Generator) Chat(ctx context.Context, req models.ChatRequest) (*stream.TextStream, error) {
	lc := g.begin(models.KindChat)
	last, ok := req.LastUserMessage()
	if !ok || isBlank(last.Content) {
		return nil, lc.reject(errMessageRequired)
	}

	var images []models.Attachment
	for _, a := range req.Data {
		if a.Type != "image" {
			continue
		}
		if _, err := decodeAttachment(a); err != nil {
			return nil, lc.reject(&MissingInputError{Message: "Invalid image attachment"})
		}
		images = append(images, a)
	}
	if err := g.dispatch(lc); err != nil {
		return nil, err
	}

	langSource := req.Context
	if isBlank(langSource) {
		langSource = last.Content
	}
	prompt, err := BuildPrompt(models.KindChat, PromptParams{Context: req.Context, Message: last.Content}, g.detect(langSource))
	if err != nil {
		return nil, lc.fail(newGenerationError(models.KindChat, err.Error(), err))
	}

	history := req.Messages[:len(req.Messages)-1]
	s, err := g.client.StreamText(ctx, prompt, history, images)
	if err != nil {
		return nil, lc.fail(classifyProviderError(models.KindChat, err))
	}
	return g.track(lc, models.KindChat, s), nil
}

// track classifies mid-stream failures and moves the lifecycle to its
// terminal state when the stream ends or is closed.
func (g *Generator) track(lc *Lifecycle, kind models.ArtifactKind, s *stream.TextStream) *stream.TextStream {
	lc.must(StateStreaming)
	return stream.New(func() (string, error) {
		if s.Next() {
			return s.Text(), nil
		}
		if err := s.Err(); err != nil {
			return "", lc.fail(classifyProviderError(kind, err))
		}
		lc.finishStream()
		return "", io.EOF
	}, func() error {
		lc.finishStream()
		return s.Close()
	})
}
