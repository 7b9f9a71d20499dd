// Package doctext pulls raw text out of uploaded clinical documents so they
// can enter the extraction corpus as text sources. Scanned documents with no
// text layer belong to the ocr package instead.
package doctext

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Extract returns the text content of a document. The format is chosen by
// filename extension; anything unrecognized is treated as plain text.
func Extract(data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("document %q is empty", filename)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDocx(data)
	default:
		return extractPlain(data, filename)
	}
}

func extractPlain(data []byte, filename string) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("document %q is not valid UTF-8 text", filename)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("document %q contains no text", filename)
	}
	return text, nil
}
