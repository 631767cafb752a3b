package extract

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/medbot-ai/medbot/internal/port"
)

// PDFExtractor pulls plain text out of uploaded PDF files. Pages that fail
// to decode are skipped so one broken page does not lose a whole document.
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractText returns the document's plain text with page delimiters, ready
// for the chunker. A PDF with no extractable text at all is an error.
func (e *PDFExtractor) ExtractText(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs; a corrupt upload must
	// surface as an error, not take down the server.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("skipping unreadable pdf page", "page", i, "error", err)
			continue
		}
		fmt.Fprintf(&sb, "\n\n--- Page %d ---\n\n%s", i, text)
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", port.ErrEmptyDocument
	}
	return sb.String(), nil
}
