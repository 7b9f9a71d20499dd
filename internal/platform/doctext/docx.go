package doctext

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// extractDocx reads word/document.xml from the DOCX archive and joins its
// paragraphs with blank lines.
func extractDocx(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []string
	var current strings.Builder
	var inParagraph bool

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				inParagraph = true
				current.Reset()
			}
		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}

	if len(paragraphs) == 0 {
		return "", fmt.Errorf("no text content found in document")
	}
	return strings.Join(paragraphs, "\n\n"), nil
}
