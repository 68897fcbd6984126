// Package ai provides AI client decorators used by the application.
package ai

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// embedCacheClient wraps an AIClient and caches embedding vectors in Redis,
// keyed by a hash of the text and the embedding model. Only Embed is
// cached; Complete passes through. Cache failures degrade to the base
// client so a Redis outage never fails an embedding call.
type embedCacheClient struct {
	base  domain.AIClient
	rdb   *redis.Client
	model string
	ttl   time.Duration
}

// NewEmbedCache wraps base with a Redis-backed embedding cache. If rdb is
// nil, base is returned unmodified.
func NewEmbedCache(base domain.AIClient, rdb *redis.Client, model string, ttl time.Duration) domain.AIClient {
	if rdb == nil || base == nil {
		return base
	}
	return &embedCacheClient{base: base, rdb: rdb, model: model, ttl: ttl}
}

func (c *embedCacheClient) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	missIdx := make([]int, 0)
	missTexts := make([]string, 0)
	for i, t := range texts {
		if v, ok := c.get(ctx, t); ok {
			res[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missIdx) > 0 {
		vecs, err := c.base.Embed(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, idx := range missIdx {
			res[idx] = vecs[j]
			c.put(ctx, missTexts[j], vecs[j])
		}
	}
	return res, nil
}

func (c *embedCacheClient) Complete(ctx domain.Context, msgs []domain.ChatMessage, temperature float64, maxTokens int) (string, error) {
	return c.base.Complete(ctx, msgs, temperature, maxTokens)
}

func (c *embedCacheClient) get(ctx domain.Context, text string) ([]float32, bool) {
	b, err := c.rdb.Get(ctx, c.keyFor(text)).Bytes()
	if err != nil {
		return nil, false
	}
	var v []float32
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return v, true
}

func (c *embedCacheClient) put(ctx domain.Context, text string, vec []float32) {
	b, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.keyFor(text), b, c.ttl).Err(); err != nil {
		slog.Debug("embed cache write failed", slog.Any("error", err))
	}
}

func (c *embedCacheClient) keyFor(text string) string {
	h := sha256.Sum256([]byte(c.model + "\x00" + text))
	return "emb:" + hex.EncodeToString(h[:])
}
