package websocket

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"prisma-backend/internal/models"
	"prisma-backend/internal/services"
)

func dial(t *testing.T, mock *services.MockModelClient) *websocket.Conn {
	t.Helper()
	hub := NewHub(services.NewGenerator(mock, nil), "", nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrames(t *testing.T, conn *websocket.Conn) []models.WSFrame {
	t.Helper()
	var frames []models.WSFrame
	for {
		var f models.WSFrame
		if err := conn.ReadJSON(&f); err != nil {
			return frames
		}
		frames = append(frames, f)
		if f.Type != models.FrameChunk {
			return frames
		}
	}
}

func TestHub_StreamsEssay(t *testing.T) {
	mock := services.NewMockModelClient(services.MockResponse{Chunks: []string{"Intro. ", "Body. ", "Conclusion."}})
	conn := dial(t, mock)

	err := conn.WriteJSON(map[string]any{
		"kind":    "essay",
		"payload": map[string]any{"topic": "The water cycle", "wordCount": 300},
	})
	if err != nil {
		t.Fatal(err)
	}

	frames := readFrames(t, conn)
	if len(frames) != 4 {
		t.Fatalf("Expected 3 chunks and done, got %+v", frames)
	}
	var text strings.Builder
	for _, f := range frames[:3] {
		if f.Type != models.FrameChunk {
			t.Errorf("Expected chunk frame, got %q", f.Type)
		}
		text.WriteString(f.Text)
	}
	if text.String() != "Intro. Body. Conclusion." {
		t.Errorf("Unexpected essay %q", text.String())
	}
	if frames[3].Type != models.FrameDone {
		t.Errorf("Expected done frame, got %+v", frames[3])
	}
}

func TestHub_RejectsBlankChat(t *testing.T) {
	mock := services.NewMockModelClient()
	conn := dial(t, mock)

	conn.WriteJSON(map[string]any{
		"kind":    "chat",
		"payload": map[string]any{"messages": []map[string]string{{"role": "user", "content": "  "}}},
	})

	frames := readFrames(t, conn)
	if len(frames) != 1 || frames[0].Type != models.FrameError {
		t.Fatalf("Expected a single error frame, got %+v", frames)
	}
	if frames[0].Status != http.StatusBadRequest || frames[0].Error != "Messages are required" {
		t.Errorf("Unexpected error frame %+v", frames[0])
	}
	if mock.CallCount() != 0 {
		t.Errorf("Expected no model calls, got %d", mock.CallCount())
	}
}

func TestHub_RejectsUnstreamedKind(t *testing.T) {
	conn := dial(t, services.NewMockModelClient())
	conn.WriteJSON(map[string]any{"kind": "summary", "payload": map[string]any{"context": "x"}})

	frames := readFrames(t, conn)
	if len(frames) != 1 || frames[0].Status != http.StatusBadRequest {
		t.Fatalf("Expected a 400 error frame, got %+v", frames)
	}
}

func TestHub_RateLimitMidStream(t *testing.T) {
	mock := services.NewMockModelClient(services.MockResponse{
		Chunks:    []string{"partial"},
		StreamErr: errors.New("googleapi: Error 429: Resource has been exhausted (e.g. check quota)."),
	})
	conn := dial(t, mock)
	conn.WriteJSON(map[string]any{
		"kind":    "chat",
		"payload": map[string]any{"messages": []map[string]string{{"role": "user", "content": "hola"}}},
	})

	frames := readFrames(t, conn)
	if len(frames) != 2 {
		t.Fatalf("Expected chunk then error, got %+v", frames)
	}
	if frames[0].Text != "partial" {
		t.Errorf("Unexpected chunk %+v", frames[0])
	}
	if frames[1].Type != models.FrameError || frames[1].Status != http.StatusTooManyRequests {
		t.Errorf("Expected 429 error frame, got %+v", frames[1])
	}
}
