package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 1536, cfg.EmbeddingsDim)
	assert.Equal(t, ExtractorLLM, cfg.SkillExtractor)
	assert.Equal(t, 1500, cfg.ChunkTargetChars)
	assert.Equal(t, 200, cfg.ChunkOverlapChars)
	assert.Equal(t, 100, cfg.MinTextChars)
	assert.Equal(t, 50000, cfg.MaxAnalysisChars)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsProd())
}

func TestLoadRejectsUnknownExtractor(t *testing.T) {
	t.Setenv("SKILL_EXTRACTOR", "regex")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SKILL_EXTRACTOR")
}

func TestLoadRejectsOverlapNotBelowTarget(t *testing.T) {
	t.Setenv("CHUNK_TARGET_CHARS", "200")
	t.Setenv("CHUNK_OVERLAP_CHARS", "200")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHUNK_OVERLAP_CHARS")
}

func TestExtractorModeOverride(t *testing.T) {
	t.Setenv("SKILL_EXTRACTOR", "dictionary")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ExtractorDictionary, cfg.SkillExtractor)
}
