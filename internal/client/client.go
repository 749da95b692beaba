// Package client talks to the relay server on behalf of the local study
// client. HTTP failures come back as the same typed errors the server's
// generator produces, so callers can branch on them with errors.As.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"prisma-backend/internal/models"
	"prisma-backend/internal/services"
	"prisma-backend/internal/stream"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No overall timeout: streams may run as long as the server allows.
		http: &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 90 * time.Second,
		}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Summary(ctx context.Context, req models.SummaryRequest) (*models.SummaryResult, error) {
	var out models.SummaryResult
	if err := c.postJSON(ctx, "/api/generate-summary", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StudyAids(ctx context.Context, req models.StudyAidsRequest) (*models.StudyAidsResult, error) {
	var out models.StudyAidsResult
	if err := c.postJSON(ctx, "/api/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Exam(ctx context.Context, req models.ExamRequest) (*models.ExamResult, error) {
	var out models.ExamResult
	if err := c.postJSON(ctx, "/api/generate-exam", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Podcast(ctx context.Context, req models.PodcastRequest) (*models.PodcastResult, error) {
	var out models.PodcastResult
	if err := c.postJSON(ctx, "/api/generate-podcast", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Translate(ctx context.Context, req models.TranslateRequest) (*models.TranslationResult, error) {
	var out models.TranslationResult
	if err := c.postJSON(ctx, "/api/translate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Essay(ctx context.Context, req models.EssayRequest) (*stream.TextStream, error) {
	return c.postStream(ctx, "/api/generate-essay", req)
}

func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*stream.TextStream, error) {
	return c.postStream(ctx, "/api/chat", req)
}

// ExtractText uploads a file for server-side text extraction.
func (c *Client) ExtractText(ctx context.Context, name string, r io.Reader) (*models.ExtractTextResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/extract-text", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var out models.ExtractTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode extract-text response: %w", err)
	}
	return &out, nil
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %s", resp.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	resp, err := c.do(ctx, path, payload)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &services.GenerationError{Message: "Invalid server response", Details: err.Error(), Err: err}
	}
	return nil
}

func (c *Client) postStream(ctx context.Context, path string, payload any) (*stream.TextStream, error) {
	resp, err := c.do(ctx, path, payload)
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return stream.MapErr(stream.FromReader(resp.Body), transportError), nil
}
