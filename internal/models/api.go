package models

import "encoding/json"

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WebSocket frames

type WSRequest struct {
	Kind    ArtifactKind    `json:"kind"` // "chat" | "essay"
	Payload json.RawMessage `json:"payload"`
}

const (
	FrameChunk = "chunk"
	FrameDone  = "done"
	FrameError = "error"
)

type WSFrame struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

type ExtractTextResponse struct {
	Name       string `json:"name"`
	Text       string `json:"text"`
	Characters int    `json:"characters"`
}
