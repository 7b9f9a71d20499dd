package extraction

import (
	"fmt"
	"strings"
)

// Source types accepted by the aggregator. Audio, images and documents are
// reduced to text by the transcription, ocr and doctext adapters before the
// aggregator sees them.
const (
	SourceAudio    = "audio"
	SourceDocument = "document"
	SourceText     = "text"
	SourcePaste    = "paste"
)

var validSourceTypes = map[string]bool{
	SourceAudio:    true,
	SourceDocument: true,
	SourceText:     true,
	SourcePaste:    true,
}

// Source is one textual input for a visit. Content is the text the
// aggregator consumes; sources may instead arrive with raw Data (base64 on
// the wire) that a Resolver reduces to text before aggregation.
type Source struct {
	Type        string         `json:"type"`
	Content     string         `json:"content,omitempty"`
	Data        []byte         `json:"data,omitempty"`
	ContentType string         `json:"contentType,omitempty"`
	Metadata    SourceMetadata `json:"metadata"`
}

// SourceMetadata carries provenance that survives into the corpus.
type SourceMetadata struct {
	Filename   string   `json:"filename,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"` // OCR confidence, 0..1
}

// Validate checks a source before aggregation.
func (s Source) Validate() error {
	if !validSourceTypes[s.Type] {
		return fmt.Errorf("invalid source type %q", s.Type)
	}
	if strings.TrimSpace(s.Content) == "" {
		return fmt.Errorf("source content is empty")
	}
	if s.Metadata.Confidence != nil && (*s.Metadata.Confidence < 0 || *s.Metadata.Confidence > 1) {
		return fmt.Errorf("ocr confidence %v out of range [0,1]", *s.Metadata.Confidence)
	}
	return nil
}

// Aggregate merges the sources into one corpus for the extraction engine.
// Each block is prefixed with provenance tags so the engine can weigh and
// cite its inputs, and blocks are separated by a horizontal rule. Pure
// function; callers reject empty source lists before reaching here.
func Aggregate(sources []Source) (string, error) {
	blocks := make([]string, 0, len(sources))
	for i, src := range sources {
		if err := src.Validate(); err != nil {
			return "", fmt.Errorf("source %d: %w", i, err)
		}

		var header strings.Builder
		header.WriteString("[source-type: " + src.Type + "]")
		if src.Metadata.Filename != "" {
			header.WriteString(" [source: " + src.Metadata.Filename + "]")
		}
		if src.Metadata.Confidence != nil {
			header.WriteString(fmt.Sprintf(" [ocr-confidence: %.0f%%]", *src.Metadata.Confidence*100))
		}

		blocks = append(blocks, header.String()+"\n"+strings.TrimSpace(src.Content))
	}
	return strings.Join(blocks, "\n\n---\n\n"), nil
}
