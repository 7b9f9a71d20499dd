package extraction

import (
	"fmt"
	"strings"

	"github.com/scribe/scribe/internal/schema"
)

// Analysis statuses.
const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
)

// AnalysisMetadata summarizes completeness and safety signals derived from a
// validated record. Stored alongside the record and recomputed after every
// edit so it never goes stale.
type AnalysisMetadata struct {
	MissingFields []string `json:"missingFields"`
	RedFlags      []string `json:"redFlags"`
	Status        string   `json:"status"`
}

// Severity values that raise a red flag, matched case-insensitively across
// every allergy category. The adjectival "anaphylactic" shows up in narrative
// severities alongside "anaphylaxis".
var redFlagSeverities = map[string]bool{
	"severe":           true,
	"life-threatening": true,
	"anaphylaxis":      true,
	"anaphylactic":     true,
}

// Analyze derives completeness and safety metadata from a validated record.
// Pure function of its input.
func Analyze(rec *schema.ClinicalExtraction) AnalysisMetadata {
	meta := AnalysisMetadata{
		MissingFields: []string{},
		RedFlags:      []string{},
		Status:        StatusComplete,
	}

	if rec.PatientAlias == nil || strings.TrimSpace(*rec.PatientAlias) == "" {
		meta.MissingFields = append(meta.MissingFields, "patientAlias")
	}
	if rec.ChiefComplaint == nil || strings.TrimSpace(*rec.ChiefComplaint) == "" {
		meta.MissingFields = append(meta.MissingFields, "chiefComplaint")
	}
	if len(meta.MissingFields) > 0 {
		meta.Status = StatusIncomplete
	}

	for _, entry := range flattenAllergies(rec.AllergyHistory) {
		if entry.severity == nil {
			continue
		}
		if redFlagSeverities[strings.ToLower(strings.TrimSpace(*entry.severity))] {
			meta.RedFlags = append(meta.RedFlags,
				fmt.Sprintf("%s allergy %q has severity %q", entry.category, entry.allergen, *entry.severity))
		}
	}

	return meta
}

type allergyEntry struct {
	category string
	allergen string
	severity *string
}

// flattenAllergies concatenates all five allergy categories into one list so
// the red-flag scan is category-agnostic.
func flattenAllergies(h *schema.AllergyHistory) []allergyEntry {
	if h == nil {
		return nil
	}
	var entries []allergyEntry
	for _, item := range h.Food {
		entries = append(entries, allergyEntry{"food", item.Allergen, item.Severity})
	}
	for _, item := range h.Drug {
		entries = append(entries, allergyEntry{"drug", item.Allergen, item.Severity})
	}
	for _, item := range h.Environmental {
		entries = append(entries, allergyEntry{"environmental", item.Allergen, nil})
	}
	for _, item := range h.StingingInsects {
		entries = append(entries, allergyEntry{"stinging-insect", item.Allergen, item.Severity})
	}
	for _, item := range h.LatexOther {
		entries = append(entries, allergyEntry{"latex/other", item.Allergen, item.Severity})
	}
	return entries
}
