// Package openai implements the AI client port against an OpenAI-compatible
// API (embeddings and chat completions).
package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/banglahouse/resume-screener-backend/internal/adapter/observability"
	"github.com/banglahouse/resume-screener-backend/internal/config"
	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// Client talks to one configured OpenAI-compatible endpoint. It performs a
// single upstream call per invocation and maps transport failures, non-2xx
// statuses, and response shape mismatches to domain.ErrProviderUnavailable.
// It never retries; retry policy belongs to callers.
type Client struct {
	cfg     config.Config
	chatHC  *http.Client
	embedHC *http.Client
}

// New constructs a Client with per-operation timeouts.
func New(cfg config.Config) *Client {
	return &Client{
		cfg:     cfg,
		chatHC:  &http.Client{Timeout: 60 * time.Second},
		embedHC: &http.Client{Timeout: 30 * time.Second},
	}
}

// Embed returns one vector per input text, order preserving. A response
// with fewer vectors than inputs, or a vector whose dimension differs from
// the configured one, is a provider error: cross-dimension comparisons are
// invalid and must fail before anything is persisted.
func (c *Client) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("op=ai.embed: %w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}
	if len(texts) == 0 {
		return nil, nil
	}
	body, _ := json.Marshal(map[string]any{
		"model": c.cfg.EmbeddingsModel,
		"input": texts,
	})

	start := time.Now()
	resp, err := c.do(ctx, c.embedHC, "/embeddings", body)
	observability.AIRequestsTotal.WithLabelValues("openai", "embed").Inc()
	observability.AIRequestDuration.WithLabelValues("openai", "embed").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("embedding request failed", slog.Any("error", err), slog.Int("text_count", len(texts)))
		return nil, fmt.Errorf("op=ai.embed: %w: %v", domain.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := readSnippet(resp.Body, 512)
		slog.Error("embedding provider non-2xx",
			slog.Int("status", resp.StatusCode),
			slog.String("model", c.cfg.EmbeddingsModel),
			slog.String("body", snippet))
		return nil, fmt.Errorf("op=ai.embed: %w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("op=ai.embed: %w: decode: %v", domain.ErrProviderUnavailable, err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("op=ai.embed: %w: got %d vectors for %d inputs", domain.ErrProviderUnavailable, len(out.Data), len(texts))
	}
	vecs := make([][]float32, len(out.Data))
	for i := range out.Data {
		if c.cfg.EmbeddingsDim > 0 && len(out.Data[i].Embedding) != c.cfg.EmbeddingsDim {
			return nil, fmt.Errorf("op=ai.embed: %w: vector dim %d, want %d", domain.ErrProviderUnavailable, len(out.Data[i].Embedding), c.cfg.EmbeddingsDim)
		}
		vecs[i] = out.Data[i].Embedding
	}
	return vecs, nil
}

// Complete runs one chat completion and returns the first choice's content.
func (c *Client) Complete(ctx domain.Context, msgs []domain.ChatMessage, temperature float64, maxTokens int) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("op=ai.complete: %w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}
	wire := make([]map[string]string, len(msgs))
	for i, m := range msgs {
		wire[i] = map[string]string{"role": string(m.Role), "content": m.Content}
	}
	body, _ := json.Marshal(map[string]any{
		"model":       c.cfg.ChatModel,
		"temperature": temperature,
		"max_tokens":  maxTokens,
		"messages":    wire,
	})

	start := time.Now()
	resp, err := c.do(ctx, c.chatHC, "/chat/completions", body)
	observability.AIRequestsTotal.WithLabelValues("openai", "chat").Inc()
	observability.AIRequestDuration.WithLabelValues("openai", "chat").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("completion request failed", slog.Any("error", err), slog.String("model", c.cfg.ChatModel))
		return "", fmt.Errorf("op=ai.complete: %w: %v", domain.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := readSnippet(resp.Body, 512)
		slog.Error("completion provider non-2xx",
			slog.Int("status", resp.StatusCode),
			slog.String("model", c.cfg.ChatModel),
			slog.String("body", snippet))
		return "", fmt.Errorf("op=ai.complete: %w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("op=ai.complete: %w: decode: %v", domain.ErrProviderUnavailable, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("op=ai.complete: %w: empty choices", domain.ErrProviderUnavailable)
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) do(ctx domain.Context, hc *http.Client, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenAIBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
	req.Header.Set("Content-Type", "application/json")
	return hc.Do(req)
}

func readSnippet(r io.Reader, n int64) string {
	b, _ := io.ReadAll(io.LimitReader(r, n))
	return string(b)
}
