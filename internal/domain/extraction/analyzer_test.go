package extraction

import (
	"strings"
	"testing"

	"github.com/scribe/scribe/internal/schema"
)

func mustValidate(t *testing.T, raw string) *schema.ClinicalExtraction {
	t.Helper()
	rec, err := schema.Validate([]byte(raw))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return rec
}

func TestAnalyzeCompleteRecord(t *testing.T) {
	rec := mustValidate(t, `{
		"patientAlias": "p",
		"chiefComplaint": "seasonal rhinitis",
		"allergyHistory": {"food": [{"allergen": "egg", "severity": "mild"}]}
	}`)

	meta := Analyze(rec)
	if meta.Status != StatusComplete {
		t.Errorf("status = %q, want complete", meta.Status)
	}
	if len(meta.MissingFields) != 0 {
		t.Errorf("missingFields = %v, want []", meta.MissingFields)
	}
	if len(meta.RedFlags) != 0 {
		t.Errorf("redFlags = %v, want []", meta.RedFlags)
	}
}

func TestAnalyzeMissingMandatoryFields(t *testing.T) {
	rec := mustValidate(t, `{"patientAlias": "  "}`)

	meta := Analyze(rec)
	if meta.Status != StatusIncomplete {
		t.Errorf("status = %q, want incomplete", meta.Status)
	}
	want := map[string]bool{"patientAlias": false, "chiefComplaint": false}
	for _, field := range meta.MissingFields {
		want[field] = true
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("missingFields lacks %q: %v", field, meta.MissingFields)
		}
	}
}

func TestAnalyzeRedFlagsAcrossCategories(t *testing.T) {
	rec := mustValidate(t, `{
		"patientAlias": "p",
		"chiefComplaint": "follow-up",
		"allergyHistory": {
			"food": [{"allergen": "peanut", "severity": "severe"}],
			"drug": [{"allergen": "penicillin", "severity": "severe"}],
			"stingingInsects": [{"allergen": "wasp", "severity": "Anaphylaxis"}],
			"latexOther": [{"allergen": "latex", "severity": "Life-Threatening"}]
		}
	}`)

	meta := Analyze(rec)
	if len(meta.RedFlags) != 4 {
		t.Fatalf("got %d red flags, want 4: %v", len(meta.RedFlags), meta.RedFlags)
	}
	for _, flag := range meta.RedFlags {
		if !strings.Contains(flag, "allergy") {
			t.Errorf("flag %q should name the allergy entry", flag)
		}
	}
	if meta.Status != StatusComplete {
		t.Errorf("status = %q; red flags alone must not force incomplete", meta.Status)
	}
}

func TestAnalyzeIgnoresNonFlagSeverities(t *testing.T) {
	rec := mustValidate(t, `{
		"patientAlias": "p",
		"chiefComplaint": "follow-up",
		"allergyHistory": {
			"food": [{"allergen": "milk", "severity": "moderate"}],
			"stingingInsects": [{"allergen": "bee", "severity": "local swelling only"}]
		}
	}`)

	if meta := Analyze(rec); len(meta.RedFlags) != 0 {
		t.Errorf("redFlags = %v, want none", meta.RedFlags)
	}
}

func TestAnalyzeNilAllergyHistory(t *testing.T) {
	rec := mustValidate(t, `{"patientAlias": "p", "chiefComplaint": "cough"}`)
	meta := Analyze(rec)
	if len(meta.RedFlags) != 0 || meta.Status != StatusComplete {
		t.Errorf("Analyze() = %+v, want complete with no flags", meta)
	}
}

func TestAnalyzeIsPure(t *testing.T) {
	rec := mustValidate(t, `{
		"allergyHistory": {"drug": [{"allergen": "aspirin", "severity": "severe"}]}
	}`)
	first := Analyze(rec)
	second := Analyze(rec)
	if len(first.RedFlags) != len(second.RedFlags) || first.Status != second.Status {
		t.Error("Analyze() not deterministic across runs")
	}
}
