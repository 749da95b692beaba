package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
	"prisma-backend/internal/stream"
)

const defaultImageMIMEType = "image/jpeg"

// GeminiClient implements ModelClient on the Gemini API. A fresh
// GenerativeModel is configured per call so system prompts and schemas never
// leak between concurrent requests.
type GeminiClient struct {
	client    *genai.Client
	modelName string
	rateChan  chan struct{} // Token bucket
	log       *logger.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, concurrentReqs int, log *logger.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	if log == nil {
		log = logger.Nop()
	}

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
		rateChan:  rateChan,
		log:       log.With("model", modelName),
	}, nil
}

func (c *GeminiClient) Close() {
	c.client.Close()
}

// acquireRate blocks until a rate slot is available
func (c *GeminiClient) acquireRate(ctx context.Context) error {
	select {
	case <-c.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (c *GeminiClient) releaseRate() {
	c.rateChan <- struct{}{}
}

func (c *GeminiClient) model(p Prompt) *genai.GenerativeModel {
	m := c.client.GenerativeModel(c.modelName)
	m.SetTemperature(0.3)
	m.SetTopP(0.95)
	if p.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}
	}
	return m
}

func (c *GeminiClient) GenerateText(ctx context.Context, p Prompt) (string, error) {
	if err := c.acquireRate(ctx); err != nil {
		return "", err
	}
	defer c.releaseRate()

	resp, err := c.model(p).GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return "", err
	}
	c.logCandidates(resp)

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("Gemini returned an empty response")
	}
	return text, nil
}

func (c *GeminiClient) GenerateJSON(ctx context.Context, p Prompt, schema *Schema) (json.RawMessage, error) {
	if err := c.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer c.releaseRate()

	m := c.model(p)
	m.ResponseMIMEType = "application/json"
	if schema != nil {
		m.ResponseSchema = buildGeminiSchema(schema.Definition)
	}

	resp, err := m.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return nil, err
	}
	c.logCandidates(resp)

	return json.RawMessage(stripJSONFence(extractText(resp))), nil
}

func (c *GeminiClient) StreamText(ctx context.Context, p Prompt, history []models.ChatMessage, attachments []models.Attachment) (*stream.TextStream, error) {
	parts := []genai.Part{genai.Text(p.User)}
	for _, a := range attachments {
		blob, err := decodeAttachment(a)
		if err != nil {
			return nil, err
		}
		parts = append(parts, blob)
	}

	if err := c.acquireRate(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)

	var once sync.Once
	release := func() {
		once.Do(func() {
			cancel()
			c.releaseRate()
		})
	}

	m := c.model(p)
	var iter *genai.GenerateContentResponseIterator
	if len(history) > 0 {
		cs := m.StartChat()
		cs.History = toGeminiContents(history)
		iter = cs.SendMessageStream(ctx, parts...)
	} else {
		iter = m.GenerateContentStream(ctx, parts...)
	}

	next := func() (string, error) {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			release()
			return "", io.EOF
		}
		if err != nil {
			release()
			return "", err
		}
		return extractText(resp), nil
	}

	return stream.New(next, func() error {
		release()
		return nil
	}), nil
}

func (c *GeminiClient) logCandidates(resp *genai.GenerateContentResponse) {
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			c.log.Warn("Gemini candidate did not finish cleanly", "candidate", i, "finish_reason", cand.FinishReason.String())
		}
	}
}

func toGeminiContents(history []models.ChatMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return out
}

// decodeAttachment accepts raw base64 or a data: URL.
func decodeAttachment(a models.Attachment) (genai.Blob, error) {
	mimeType := a.MimeType
	data := a.Image
	if strings.HasPrefix(data, "data:") {
		header, payload, ok := strings.Cut(data, ",")
		if !ok {
			return genai.Blob{}, fmt.Errorf("malformed data URL")
		}
		if mimeType == "" {
			mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		}
		data = payload
	}
	if mimeType == "" {
		mimeType = defaultImageMIMEType
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return genai.Blob{}, fmt.Errorf("decode image attachment: %w", err)
	}
	return genai.Blob{MIMEType: mimeType, Data: raw}, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

// buildGeminiSchema converts a JSON Schema definition map to a genai.Schema.
// Keywords Gemini does not understand (minItems, additionalProperties) are
// dropped; the local validator still enforces them.
func buildGeminiSchema(def map[string]any) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := def["type"].(string); ok {
		schema.Type = mapGeminiType(t)
	}
	if desc, ok := def["description"].(string); ok {
		schema.Description = desc
	}

	if props, ok := def["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for k, v := range props {
			if propDef, ok := v.(map[string]any); ok {
				schema.Properties[k] = buildGeminiSchema(propDef)
			}
		}
	}

	if req, ok := def["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	if enums, ok := def["enum"].([]any); ok {
		for _, e := range enums {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}

	if items, ok := def["items"].(map[string]any); ok {
		schema.Items = buildGeminiSchema(items)
	}

	return schema
}

func mapGeminiType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
