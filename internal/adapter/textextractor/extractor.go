// Package textextractor converts uploaded documents into normalized plain
// text. PDF and plain-text payloads are supported; the format is sniffed
// from content, never trusted from the filename.
package textextractor

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
	"github.com/banglahouse/resume-screener-backend/pkg/textx"
)

// Extractor implements domain.TextExtractor in process.
type Extractor struct {
	minChars int
	maxChars int
}

// New constructs an Extractor. Extracted text shorter than minChars is a
// validation error; text longer than maxChars is truncated with a warning.
func New(minChars, maxChars int) *Extractor {
	return &Extractor{minChars: minChars, maxChars: maxChars}
}

// Extract sniffs the payload format, pulls out its text, and normalizes
// whitespace.
func (e *Extractor) Extract(ctx domain.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("op=extract.empty file=%s: %w", filename, domain.ErrInvalidArgument)
	}
	mt := mimetype.Detect(data)
	var (
		text string
		err  error
	)
	switch {
	case mt.Is("application/pdf"):
		text, err = extractPDFText(data)
		if err != nil {
			return "", fmt.Errorf("op=extract.pdf file=%s: %w", filename, err)
		}
	case strings.HasPrefix(mt.String(), "text/"):
		text = string(data)
	default:
		return "", fmt.Errorf("op=extract.unsupported mime=%s file=%s: %w", mt.String(), filename, domain.ErrInvalidArgument)
	}

	text = textx.NormalizeWhitespace(textx.SanitizeText(text))
	if len(text) < e.minChars {
		return "", fmt.Errorf("op=extract.too_short file=%s chars=%d: %w", filename, len(text), domain.ErrInvalidArgument)
	}
	if len(text) > e.maxChars {
		slog.Warn("extracted text truncated",
			slog.String("file", filename),
			slog.Int("chars", len(text)),
			slog.Int("max", e.maxChars))
		text = strings.TrimSpace(text[:e.maxChars])
	}
	return text, nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		// Pages with broken font maps yield partial text; keep what we got.
		text, _ := page.GetPlainText(nil)
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
