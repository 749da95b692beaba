package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prisma-backend/internal/handlers"
	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
	"prisma-backend/internal/router"
	"prisma-backend/internal/services"
	"prisma-backend/internal/stream"
	"prisma-backend/internal/websocket"
)

func newTestServer(t *testing.T, client services.ModelClient) *Client {
	t.Helper()
	gen := services.NewGenerator(client, nil)
	h := router.New(
		handlers.NewArtifactHandler(gen, nil),
		handlers.NewContentHandler(services.NewFileExtractService(), 5, nil),
		websocket.NewHub(gen, "", nil),
		"",
		time.Minute,
		logger.Nop(),
	)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func TestClient_Summary(t *testing.T) {
	mock := services.NewMockModelClient(services.MockResponse{
		Content: `{"briefSummary":"Short.","keyTakeaways":["one"],"detailedSummary":"Long."}`,
	})
	c := newTestServer(t, mock)

	got, err := c.Summary(context.Background(), models.SummaryRequest{Context: "Some text about cells."})
	require.NoError(t, err)
	assert.Equal(t, "Short.", got.BriefSummary)
	assert.Equal(t, []string{"one"}, got.KeyTakeaways)
}

func TestClient_TypedErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing input", func(t *testing.T) {
		c := newTestServer(t, services.NewMockModelClient())
		_, err := c.Podcast(ctx, models.PodcastRequest{})
		var target *services.MissingInputError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "Context is required", target.Message)
	})

	t.Run("configuration", func(t *testing.T) {
		c := newTestServer(t, nil)
		_, err := c.Translate(ctx, models.TranslateRequest{Text: "hola", TargetLanguage: "en"})
		var target *services.ConfigurationError
		require.ErrorAs(t, err, &target)
	})

	t.Run("rate limited", func(t *testing.T) {
		c := newTestServer(t, services.NewMockModelClient(services.MockResponse{Err: errors.New("Error 429: quota exceeded")}))
		_, err := c.StudyAids(ctx, models.StudyAidsRequest{Context: "text"})
		var target *services.RateLimitedError
		require.ErrorAs(t, err, &target)
		assert.Contains(t, target.Details, "quota exceeded")
	})

	t.Run("generation", func(t *testing.T) {
		c := newTestServer(t, services.NewMockModelClient(services.MockResponse{Content: `{"questions":[]}`}))
		_, err := c.Exam(ctx, models.ExamRequest{Context: "text", NumQuestions: 3})
		var target *services.GenerationError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "Failed to generate exam.", target.Message)
	})
}

func TestClient_ChatStream(t *testing.T) {
	mock := services.NewMockModelClient(services.MockResponse{Chunks: []string{"The mitochondria ", "makes ATP."}})
	c := newTestServer(t, mock)

	s, err := c.Chat(context.Background(), models.ChatRequest{
		Messages: []models.ChatMessage{{Role: models.RoleUser, Content: "what does the mitochondria do?"}},
	})
	require.NoError(t, err)

	text, err := stream.Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "The mitochondria makes ATP.", text)
}

func TestClient_EssayEarlyFailure(t *testing.T) {
	mock := services.NewMockModelClient(services.MockResponse{Err: errors.New("model overloaded")})
	c := newTestServer(t, mock)

	_, err := c.Essay(context.Background(), models.EssayRequest{Topic: "Rivers"})
	var target *services.GenerationError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "Failed to generate essay.", target.Message)
	assert.Equal(t, "model overloaded", target.Details)
}

func TestClient_ExtractText(t *testing.T) {
	c := newTestServer(t, services.NewMockModelClient())

	got, err := c.ExtractText(context.Background(), "notes.txt", strings.NewReader("Osmosis moves water."))
	require.NoError(t, err)
	assert.Equal(t, "Osmosis moves water.", got.Text)

	_, err = c.ExtractText(context.Background(), "image.png", strings.NewReader("png"))
	var target *services.MissingInputError
	require.ErrorAs(t, err, &target)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url)
	_, err := c.Summary(context.Background(), models.SummaryRequest{Context: "x"})
	var target *services.GenerationError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "Could not reach the PRISMA server", target.Message)
	assert.Error(t, c.Health(context.Background()))
}

func TestDecodeError_NonJSONBody(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusBadGateway)
	rec.WriteString("upstream down")

	err := decodeError(rec.Result())
	var target *services.GenerationError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "server returned 502 Bad Gateway", target.Message)
	assert.Equal(t, "upstream down", target.Details)
}
