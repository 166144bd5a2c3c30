// =============================================================================
// PDF Text Extraction Helper
// =============================================================================
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// PDFExtractor pulls a plain-text abstract out of a paper PDF when the
// source record has none.
type PDFExtractor struct {
	MaxBytes int64 // download cap, defaults to 20 MiB
	MaxPages int   // pages scanned, defaults to 2
	MaxRunes int   // result cap, defaults to 1000

	Logger *zap.Logger
}

// Abstract returns the leading text of the PDF, or "" on any failure.
func (p *PDFExtractor) Abstract(ctx context.Context, f *Fetcher, pdfURL string) string {
	text, err := p.extract(ctx, f, pdfURL)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Debug("pdf abstract fallback failed", zap.String("url", pdfURL), zap.Error(err))
		}
		return ""
	}
	maxRunes := p.MaxRunes
	if maxRunes <= 0 {
		maxRunes = 1000
	}
	return clipRunes(text, maxRunes)
}

// extract downloads a PDF and extracts the text of its first pages
func (p *PDFExtractor) extract(ctx context.Context, f *Fetcher, pdfURL string) (string, error) {
	maxBytes := p.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	maxPages := p.MaxPages
	if maxPages <= 0 {
		maxPages = 2
	}

	data, err := f.Bytes(ctx, pdfURL, maxBytes)
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage() && i <= maxPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return extractAbstractSection(normalizeWhitespace(b.String())), nil
}

// extractAbstractSection starts the text after an "Abstract" heading when
// the first pages have one.
func extractAbstractSection(text string) string {
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		return text
	}
	if i := strings.Index(lower, "abstract"); i >= 0 {
		return strings.TrimSpace(strings.TrimLeft(text[i+len("abstract"):], ":.- "))
	}
	return text
}
