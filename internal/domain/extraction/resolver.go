package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scribe/scribe/internal/platform/doctext"
	"github.com/scribe/scribe/internal/platform/ocr"
	"github.com/scribe/scribe/internal/platform/transcription"
)

// Transcriber reduces visit audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (*transcription.Transcript, error)
}

// Recognizer reduces scanned documents and photos to text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, contentType string) (*ocr.Result, error)
}

// Resolver turns sources that arrive as raw bytes into text sources the
// aggregator can consume. Audio goes through the transcriber, images through
// the recognizer, and PDF/DOCX/plain documents through doctext.
type Resolver struct {
	transcriber Transcriber
	recognizer  Recognizer
	logger      zerolog.Logger
}

// NewResolver creates a source resolver. Either provider may be nil when the
// deployment does not configure it; sources needing that provider are then
// rejected as invalid.
func NewResolver(t Transcriber, r Recognizer, logger zerolog.Logger) *Resolver {
	return &Resolver{
		transcriber: t,
		recognizer:  r,
		logger:      logger.With().Str("component", "source_resolver").Logger(),
	}
}

// Resolve returns a copy of the sources with every raw-data source reduced to
// text. Sources that already carry content pass through untouched.
func (r *Resolver) Resolve(ctx context.Context, sources []Source) ([]Source, error) {
	out := make([]Source, len(sources))
	for i, src := range sources {
		if src.Content != "" || len(src.Data) == 0 {
			out[i] = src
			continue
		}

		resolved, err := r.resolveOne(ctx, src)
		if err != nil {
			return nil, &InvalidSourceError{Err: fmt.Errorf("source %d: %w", i, err)}
		}
		out[i] = resolved
	}
	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, src Source) (Source, error) {
	switch src.Type {
	case SourceAudio:
		if r.transcriber == nil {
			return src, fmt.Errorf("audio transcription is not configured")
		}
		t, err := r.transcriber.Transcribe(ctx, src.Data, src.ContentType)
		if err != nil {
			return src, fmt.Errorf("transcribe audio: %w", err)
		}
		src.Content = t.Text
		r.logger.Debug().Int("segments", len(t.Segments)).Msg("audio source transcribed")

	case SourceDocument:
		if strings.HasPrefix(src.ContentType, "image/") {
			if r.recognizer == nil {
				return src, fmt.Errorf("ocr is not configured")
			}
			res, err := r.recognizer.Recognize(ctx, src.Data, src.ContentType)
			if err != nil {
				return src, fmt.Errorf("recognize image: %w", err)
			}
			src.Content = res.Text
			conf := res.Confidence
			src.Metadata.Confidence = &conf
		} else {
			text, err := doctext.Extract(src.Data, src.Metadata.Filename)
			if err != nil {
				return src, fmt.Errorf("extract document text: %w", err)
			}
			src.Content = text
		}

	default:
		return src, fmt.Errorf("source type %q cannot carry raw data", src.Type)
	}

	src.Data = nil
	return src, nil
}
