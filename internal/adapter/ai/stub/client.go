// Package stub provides a fast, deterministic AI client for local
// development and tests: no network, no keys, stable output.
package stub

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"strings"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// Client implements domain.AIClient deterministically.
type Client struct {
	// Dim is the embedding dimension to emit; defaults to 1536.
	Dim int
}

// New constructs a stub client emitting vectors of the given dimension.
func New(dim int) *Client {
	if dim <= 0 {
		dim = 1536
	}
	return &Client{Dim: dim}
}

// Embed derives a pseudo-embedding from a hash of the text so that equal
// texts always map to equal vectors.
func (c *Client) Embed(_ domain.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	for i, t := range texts {
		seed := sha256.Sum256([]byte(t))
		v := make([]float32, c.Dim)
		for j := range v {
			word := binary.BigEndian.Uint32(seed[(j*4)%28 : (j*4)%28+4])
			v[j] = float32(word%1000)/1000.0 - 0.5
		}
		res[i] = v
	}
	return res, nil
}

// Complete answers extraction prompts with a tiny fixed skill JSON and
// everything else with a canned grounded reply.
func (c *Client) Complete(_ domain.Context, msgs []domain.ChatMessage, _ float64, _ int) (string, error) {
	if len(msgs) > 0 && strings.Contains(msgs[0].Content, "skill extraction engine") {
		payload := map[string]any{
			"document_type": "job_description",
			"skills": []map[string]any{
				{"name": "Go", "category": "hard", "importance": "must_have", "evidence_snippets": []string{"Go"}},
				{"name": "PostgreSQL", "category": "tool", "importance": "nice_to_have", "evidence_snippets": []string{"PostgreSQL"}},
				{"name": "Communication", "category": "soft", "importance": "unspecified"},
			},
		}
		b, _ := json.Marshal(payload)
		return string(b), nil
	}
	return "Based on the provided context, the resume shows relevant experience for this role.", nil
}
