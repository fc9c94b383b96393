package extract

import (
	"bytes"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextSource yields the body text of an invoice file. The pipeline accepts
// any TextSource so tests can feed page text directly; PageText is the
// production implementation.
type TextSource func(path string) (string, error)

// PageText extracts the text of page 1, where the invoice body lives. Rows
// are joined with newlines and words with single spaces, mirroring the
// layout the extraction patterns were written against.
func PageText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Op: "PageText", Err: err, SourceFile: path}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Op: "PageText", Err: ErrInvalidPDF, SourceFile: path}
	}

	if reader.NumPage() < 1 {
		return "", &ExtractionError{Op: "PageText", Err: ErrEmptyPage, SourceFile: path}
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		return "", &ExtractionError{Op: "PageText", Err: ErrEmptyPage, SourceFile: path}
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return "", &ExtractionError{Op: "PageText", Err: err, SourceFile: path}
	}

	var builder strings.Builder
	for _, row := range rows {
		for i, word := range row.Content {
			if i > 0 {
				builder.WriteString(" ")
			}
			builder.WriteString(word.S)
		}
		builder.WriteString("\n")
	}

	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{Op: "PageText", Err: ErrEmptyPage, SourceFile: path}
	}
	return text, nil
}
