package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scribe/scribe/internal/platform/llm"
	"github.com/scribe/scribe/internal/schema"
)

// TextToStructure is the external capability that turns a visit corpus into
// a candidate JSON document. Implementations are expected to bound the call
// with a timeout and surface configuration problems as ConfigurationError.
type TextToStructure interface {
	Complete(ctx context.Context, system, user string, responseSchema json.RawMessage) (json.RawMessage, error)
}

const systemInstruction = `You are a clinical information extractor for allergy and immunology visits.
Produce ONLY a JSON object conforming to the provided schema. Rules:
- Extract only what the sources state. Never fabricate, infer, or embellish clinical facts.
- When data is ambiguous or conflicting, use "unclear" or "unknown" rather than guessing, and add an entry to needsConfirmation describing what a clinician should verify.
- Always populate needsConfirmation and sourceQualityFlags; use empty arrays when nothing applies, and record garbled, truncated, or low-confidence source passages in sourceQualityFlags.
- Never emit patient identifiers (names, dates of birth, record numbers, addresses). Use the non-identifying alias given in the sources, or null.
- certainty, confidence and priority fields default to their most conservative member when the sources are ambiguous.`

// Engine runs one extraction over an aggregated corpus. It holds no state
// between calls and never retries; transient capability failures come back
// as *ExtractionFailure for the caller to retry.
type Engine struct {
	llm    TextToStructure
	logger zerolog.Logger
}

// NewEngine creates an extraction engine backed by the given capability.
func NewEngine(llm TextToStructure, logger zerolog.Logger) *Engine {
	return &Engine{llm: llm, logger: logger.With().Str("component", "extraction_engine").Logger()}
}

// Extract produces a raw candidate document from the corpus. The result is
// untrusted and must pass schema validation before use.
func (e *Engine) Extract(ctx context.Context, corpus string) (json.RawMessage, error) {
	raw, err := e.llm.Complete(ctx, systemInstruction, corpus, schema.Root().JSONSchema())
	if err != nil {
		if isConfiguration(err) {
			return nil, err
		}
		e.logger.Warn().Err(err).Msg("text-to-structure call failed")
		return nil, &ExtractionFailure{Reason: "capability call failed", Err: err}
	}

	candidate := stripFences(raw)
	if !json.Valid(candidate) {
		e.logger.Warn().Int("bytes", len(raw)).Msg("capability returned non-JSON output")
		return nil, &ExtractionFailure{Reason: "capability returned non-JSON output"}
	}
	return candidate, nil
}

// isConfiguration passes misconfiguration through untouched so callers do
// not retry a call that can never succeed.
func isConfiguration(err error) bool {
	var ce *llm.ConfigurationError
	return errors.As(err, &ce)
}

// stripFences removes a markdown code fence around the payload, which some
// capabilities emit despite JSON response mode.
func stripFences(raw json.RawMessage) json.RawMessage {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return json.RawMessage(s)
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return json.RawMessage(strings.TrimSpace(s))
}
