package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/docuchat/internal/domain"
)

var pdfMagic = []byte("%PDF-")

// PDF extracts text from PDF documents page by page.
// Pages are separated by a blank line in the output.
type PDF struct{}

// Supports claims .pdf files and anything carrying the PDF magic header.
func (p *PDF) Supports(filename string, data []byte) bool {
	return ext(filename) == "pdf" || bytes.HasPrefix(data, pdfMagic)
}

// Extract returns the concatenated plain text of all pages in order.
// A document that cannot be opened or read maps to domain.ErrCorruptInput.
func (p *PDF) Extract(ctx context.Context, data []byte) (text string, err error) {
	// The pdf parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf parser panic: %v: %w", r, domain.ErrCorruptInput)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %v: %w", err, domain.ErrCorruptInput)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read page %d: %v: %w", i, err, domain.ErrCorruptInput)
		}

		if sb.Len() > 0 && pageText != "" {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}

	return sb.String(), nil
}
