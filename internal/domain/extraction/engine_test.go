package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/scribe/scribe/internal/platform/llm"
)

type stubCapability struct {
	out       json.RawMessage
	err       error
	gotSystem string
	gotUser   string
	gotSchema json.RawMessage
	callCount int
}

func (s *stubCapability) Complete(_ context.Context, system, user string, responseSchema json.RawMessage) (json.RawMessage, error) {
	s.callCount++
	s.gotSystem = system
	s.gotUser = user
	s.gotSchema = responseSchema
	return s.out, s.err
}

func TestEngineExtract(t *testing.T) {
	stub := &stubCapability{out: json.RawMessage(`{"patientAlias": "p"}`)}
	engine := NewEngine(stub, zerolog.Nop())

	raw, err := engine.Extract(context.Background(), "corpus text")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !json.Valid(raw) {
		t.Error("Extract() returned invalid JSON")
	}
	if stub.gotUser != "corpus text" {
		t.Errorf("user message = %q, want corpus", stub.gotUser)
	}
	if !strings.Contains(stub.gotSystem, "Never fabricate") {
		t.Error("system instruction missing no-fabrication rule")
	}
	if !strings.Contains(stub.gotSystem, "needsConfirmation") {
		t.Error("system instruction missing needsConfirmation rule")
	}
	if len(stub.gotSchema) == 0 {
		t.Error("schema constraint was not passed to the capability")
	}
}

func TestEngineStripsMarkdownFences(t *testing.T) {
	stub := &stubCapability{out: json.RawMessage("```json\n{\"patientAlias\": \"p\"}\n```")}
	engine := NewEngine(stub, zerolog.Nop())

	raw, err := engine.Extract(context.Background(), "corpus")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("fenced output not unwrapped: %v", err)
	}
}

func TestEngineWrapsCapabilityFailure(t *testing.T) {
	stub := &stubCapability{err: fmt.Errorf("upstream timeout")}
	engine := NewEngine(stub, zerolog.Nop())

	_, err := engine.Extract(context.Background(), "corpus")
	var failure *ExtractionFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Extract() error = %v, want ExtractionFailure", err)
	}
	if stub.callCount != 1 {
		t.Errorf("capability called %d times, want exactly 1 (no internal retries)", stub.callCount)
	}
}

func TestEngineRejectsNonJSONOutput(t *testing.T) {
	stub := &stubCapability{out: json.RawMessage("I could not process this visit.")}
	engine := NewEngine(stub, zerolog.Nop())

	_, err := engine.Extract(context.Background(), "corpus")
	var failure *ExtractionFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Extract() error = %v, want ExtractionFailure", err)
	}
}

func TestEnginePassesThroughConfigurationError(t *testing.T) {
	stub := &stubCapability{err: &llm.ConfigurationError{Setting: "LLM_API_KEY"}}
	engine := NewEngine(stub, zerolog.Nop())

	_, err := engine.Extract(context.Background(), "corpus")
	var configErr *llm.ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("Extract() error = %v, want ConfigurationError passthrough", err)
	}
	var failure *ExtractionFailure
	if errors.As(err, &failure) {
		t.Error("misconfiguration must not be wrapped as a retryable failure")
	}
}
