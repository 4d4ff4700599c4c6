package document

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/pdf-chat/internal/domain"
)

// Extractor reads plain text out of PDF files
type Extractor struct {
	maxChars int
}

// NewExtractor creates a new extractor that truncates output to maxChars
func NewExtractor(maxChars int) *Extractor {
	return &Extractor{maxChars: maxChars}
}

// MaxChars returns the truncation budget
func (e *Extractor) MaxChars() int {
	return e.maxChars
}

// Extraction is the text kept for a document
type Extraction struct {
	Text string
	// Chars is the rune count of the text before truncation
	Chars     int
	Truncated bool
}

// Extract returns the truncated text of every page joined by newlines
func (e *Extractor) Extract(ctx context.Context, path string) (*Extraction, error) {
	text, err := ReadText(ctx, path)
	if err != nil {
		return nil, err
	}

	out := &Extraction{
		Text:  Truncate(text, e.maxChars),
		Chars: utf8.RuneCountInString(text),
	}
	out.Truncated = e.maxChars > 0 && out.Chars > e.maxChars
	if out.Truncated {
		log.Debug().
			Str("path", path).
			Int("chars", out.Chars).
			Int("budget", e.maxChars).
			Msg("Document text truncated")
	}
	return out, nil
}

// ReadText extracts the text of each page in order. Pages are trimmed and
// blank pages are skipped. Parser panics are returned as ExtractionError.
func ReadText(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = &domain.ExtractionError{Path: path, Err: fmt.Errorf("pdf parser panic: %v", rec)}
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", &domain.ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	var pages []string

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", &domain.ExtractionError{Path: path, Err: fmt.Errorf("page %d: %w", i, err)}
		}

		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		pages = append(pages, content)
	}

	return strings.Join(pages, "\n"), nil
}
