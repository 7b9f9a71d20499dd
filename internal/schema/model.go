// Package schema defines the canonical structured-extraction record for a
// clinical visit, the machine-checkable descriptor tree that mirrors it, and
// the validation and path-resolution rules that every candidate record must
// pass before the rest of the system may rely on its invariants.
package schema

import "encoding/json"

// Visit settings.
const (
	SettingSelf      = "self"
	SettingClinic    = "clinic"
	SettingTelevisit = "televisit"
)

// Certainty qualifiers for allergy entries. Always defaulted to the most
// conservative member when the source text is ambiguous.
const (
	CertaintyConfirmed = "confirmed"
	CertaintyReported  = "reported"
	CertaintyUnclear   = "unclear"
)

// Severity grades for food/drug allergy items.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
	SeverityUnknown  = "unknown"
)

// ClinicalExtraction is the root structured record for one visit's analysis.
// Nullable scalars and objects are pointers; array fields are never nil after
// validation — absence of data is the empty slice.
type ClinicalExtraction struct {
	PatientAlias         *string               `json:"patientAlias"`
	VisitContext         *VisitContext         `json:"visitContext"`
	ChiefComplaint       *string               `json:"chiefComplaint"`
	HPI                  *HPI                  `json:"hpi"`
	AllergyHistory       *AllergyHistory       `json:"allergyHistory"`
	AtopicComorbidities  *AtopicComorbidities  `json:"atopicComorbidities"`
	Medications          []MedicationEntry     `json:"medications"`
	PMH                  []string              `json:"pmh"`
	PSH                  []string              `json:"psh"`
	FH                   []string              `json:"fh"`
	SH                   []string              `json:"sh"`
	ROS                  ROS                   `json:"ros"`
	Exam                 []string              `json:"exam"`
	TestsAndLabs         *TestsAndLabs         `json:"testsAndLabs"`
	AssessmentCandidates []AssessmentCandidate `json:"assessmentCandidates"`
	PlanCandidates       []PlanCandidate       `json:"planCandidates"`
	NeedsConfirmation    []string              `json:"needsConfirmation"`
	SourceQualityFlags   []string              `json:"sourceQualityFlags"`
}

// VisitContext records when and in what setting the visit occurred.
type VisitContext struct {
	Date    *string `json:"date"`
	Setting *string `json:"setting"`
}

// HPI is the history of present illness.
type HPI struct {
	Narrative          *string  `json:"narrative"`
	Onset              *string  `json:"onset"`
	Duration           *string  `json:"duration"`
	Course             *string  `json:"course"`
	Triggers           []string `json:"triggers"`
	RelievingFactors   []string `json:"relievingFactors"`
	AssociatedSymptoms []string `json:"associatedSymptoms"`
	PriorTreatments    []string `json:"priorTreatments"`
}

// AllergyHistory groups allergy entries into the five tracked categories.
type AllergyHistory struct {
	Food            []AllergyItem          `json:"food"`
	Drug            []AllergyItem          `json:"drug"`
	Environmental   []EnvironmentalAllergy `json:"environmental"`
	StingingInsects []OtherAllergy         `json:"stingingInsects"`
	LatexOther      []OtherAllergy         `json:"latexOther"`
}

// AllergyItem is a food or drug allergy entry.
type AllergyItem struct {
	Allergen      string  `json:"allergen"`
	Reaction      *string `json:"reaction"`
	DateOrAge     *string `json:"dateOrAge"`
	TreatmentUsed *string `json:"treatmentUsed"`
	Severity      *string `json:"severity"`
	Timing        *string `json:"timing"`
	Certainty     string  `json:"certainty"`
}

// EnvironmentalAllergy is an environmental (aero-)allergy entry.
type EnvironmentalAllergy struct {
	Allergen    string  `json:"allergen"`
	Reaction    *string `json:"reaction"`
	Seasonality *string `json:"seasonality"`
	Certainty   string  `json:"certainty"`
}

// OtherAllergy covers the stinging-insect and latex/other categories. Severity
// is free text here (narratives use terms like "anaphylaxis" that the graded
// food/drug scale does not carry).
type OtherAllergy struct {
	Allergen  string  `json:"allergen"`
	Reaction  *string `json:"reaction"`
	Severity  *string `json:"severity"`
	Certainty string  `json:"certainty"`
}

// AtopicComorbidities tracks common atopic conditions, each yes/no/unknown.
type AtopicComorbidities struct {
	Asthma              string `json:"asthma"`
	Eczema              string `json:"eczema"`
	ChronicRhinitis     string `json:"chronicRhinitis"`
	Sinusitis           string `json:"sinusitis"`
	UrticariaAngioedema string `json:"urticariaAngioedema"`
}

// MedicationEntry is a single current or recent medication.
type MedicationEntry struct {
	Name           string  `json:"name"`
	Dose           *string `json:"dose"`
	Frequency      *string `json:"frequency"`
	Indication     *string `json:"indication"`
	Response       *string `json:"response"`
	AdverseEffects *string `json:"adverseEffects"`
}

// ROS is the review of systems. Never null; sub-arrays never null.
type ROS struct {
	Positives []string `json:"positives"`
	Negatives []string `json:"negatives"`
}

// TestsAndLabs groups diagnostic results mentioned in the sources.
type TestsAndLabs struct {
	AllergyTesting []AllergyTest  `json:"allergyTesting"`
	Labs           []Lab          `json:"labs"`
	ImagingOrOther []ImagingEntry `json:"imagingOrOther"`
}

// AllergyTest is a single allergy-testing result.
type AllergyTest struct {
	Type              string   `json:"type"`
	Date              *string  `json:"date"`
	KeyFindings       *string  `json:"keyFindings"`
	AllergensPositive []string `json:"allergensPositive"`
	AllergensNegative []string `json:"allergensNegative"`
	Confidence        string   `json:"confidence"`
}

// Lab is a single laboratory result.
type Lab struct {
	Name           string  `json:"name"`
	Value          *string `json:"value"`
	Date           *string `json:"date"`
	Interpretation *string `json:"interpretation"`
}

// ImagingEntry is an imaging or other diagnostic study.
type ImagingEntry struct {
	Study    string  `json:"study"`
	Findings *string `json:"findings"`
	Date     *string `json:"date"`
}

// AssessmentCandidate is a problem the extractor proposes for the assessment.
type AssessmentCandidate struct {
	Problem            string   `json:"problem"`
	SupportingEvidence []string `json:"supportingEvidence"`
	Confidence         string   `json:"confidence"`
}

// PlanCandidate is a plan item the extractor proposes.
type PlanCandidate struct {
	Item      string  `json:"item"`
	Rationale *string `json:"rationale"`
	Priority  string  `json:"priority"`
}

// Doc renders the record as a generic JSON document for path-addressed
// traversal. The result shares no memory with the receiver.
func (r *ClinicalExtraction) Doc() (map[string]interface{}, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// FromDoc materializes a typed record from a generic JSON document. The
// document is assumed to have passed validation; no checks are re-run.
func FromDoc(doc map[string]interface{}) (*ClinicalExtraction, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var rec ClinicalExtraction
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
