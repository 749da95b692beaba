package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Attachment is an inline image sent alongside the latest chat turn.
type Attachment struct {
	Type     string `json:"type"`  // only "image" is forwarded
	Image    string `json:"image"` // base64, optionally a data: URL
	MimeType string `json:"mimeType,omitempty"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Context  string        `json:"context"`
	Data     []Attachment  `json:"data,omitempty"`
}

// LastUserMessage returns the final message when it was sent by the user.
func (r ChatRequest) LastUserMessage() (ChatMessage, bool) {
	if len(r.Messages) == 0 {
		return ChatMessage{}, false
	}
	last := r.Messages[len(r.Messages)-1]
	return last, last.Role == RoleUser
}
