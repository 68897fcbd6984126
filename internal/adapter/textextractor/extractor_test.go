package textextractor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

func TestExtractPlainText(t *testing.T) {
	t.Parallel()
	e := New(10, 50000)
	text := "Senior Go engineer with 5 years of experience in Postgres,\nKubernetes and distributed systems."
	got, err := e.Extract(context.Background(), "resume.txt", []byte(text))
	require.NoError(t, err)
	assert.Equal(t, "Senior Go engineer with 5 years of experience in Postgres, Kubernetes and distributed systems.", got)
}

func TestExtractTooShort(t *testing.T) {
	t.Parallel()
	e := New(100, 50000)
	_, err := e.Extract(context.Background(), "resume.txt", []byte("too short"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExtractEmptyPayload(t *testing.T) {
	t.Parallel()
	e := New(10, 50000)
	_, err := e.Extract(context.Background(), "resume.txt", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	t.Parallel()
	e := New(10, 50000)
	// PNG magic bytes followed by filler.
	payload := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 64)...)
	_, err := e.Extract(context.Background(), "resume.png", payload)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExtractTruncatesLongText(t *testing.T) {
	t.Parallel()
	e := New(10, 200)
	long := strings.Repeat("go engineer ", 100)
	got, err := e.Extract(context.Background(), "resume.txt", []byte(long))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 200)
	assert.True(t, strings.HasPrefix(got, "go engineer"))
}
