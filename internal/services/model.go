package services

import (
	"context"
	"encoding/json"

	"prisma-backend/internal/models"
	"prisma-backend/internal/stream"
)

// ModelClient is the boundary to the hosted model. Implementations make at
// most one provider call per method invocation.
type ModelClient interface {
	// GenerateText returns the full free-text completion.
	GenerateText(ctx context.Context, p Prompt) (string, error)
	// GenerateJSON asks for output matching schema. The raw reply is returned
	// unvalidated.
	GenerateJSON(ctx context.Context, p Prompt, schema *Schema) (json.RawMessage, error)
	// StreamText streams a reply to p.User following history. Attachments
	// are sent with the final user turn. Closing the stream cancels the call.
	StreamText(ctx context.Context, p Prompt, history []models.ChatMessage, attachments []models.Attachment) (*stream.TextStream, error)
}
