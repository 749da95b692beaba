package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"prisma-backend/internal/models"
	"prisma-backend/internal/stream"
)

// MockResponse is a canned reply for MockModelClient. Chunks are used by
// StreamText, Content by GenerateText and GenerateJSON. StreamErr fails the
// stream after the chunks have been read.
type MockResponse struct {
	Content   string
	Chunks    []string
	Err       error
	StreamErr error
}

// MockModelClient is a deterministic ModelClient for tests. It returns canned
// responses in FIFO order and records every prompt it receives.
type MockModelClient struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Prompt
	Histories [][]models.ChatMessage
}

func NewMockModelClient(responses ...MockResponse) *MockModelClient {
	return &MockModelClient{responses: responses}
}

func (m *MockModelClient) next(p Prompt, history []models.ChatMessage) MockResponse {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, p)
	m.Histories = append(m.Histories, history)
	if len(m.responses) == 0 {
		return MockResponse{Err: errors.New("mock: no response queued")}
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp
}

func (m *MockModelClient) GenerateText(_ context.Context, p Prompt) (string, error) {
	resp := m.next(p, nil)
	return resp.Content, resp.Err
}

func (m *MockModelClient) GenerateJSON(_ context.Context, p Prompt, _ *Schema) (json.RawMessage, error) {
	resp := m.next(p, nil)
	if resp.Err != nil {
		return nil, resp.Err
	}
	return json.RawMessage(resp.Content), nil
}

func (m *MockModelClient) StreamText(_ context.Context, p Prompt, history []models.ChatMessage, _ []models.Attachment) (*stream.TextStream, error) {
	resp := m.next(p, history)
	if resp.Err != nil {
		return nil, resp.Err
	}
	chunks := resp.Chunks
	if len(chunks) == 0 && resp.Content != "" {
		chunks = []string{resp.Content}
	}
	i := 0
	return stream.New(func() (string, error) {
		if i < len(chunks) {
			i++
			return chunks[i-1], nil
		}
		if resp.StreamErr != nil {
			return "", resp.StreamErr
		}
		return "", io.EOF
	}, nil), nil
}

// AddResponse appends a canned response to the queue.
func (m *MockModelClient) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of model calls made.
func (m *MockModelClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
