package extraction

import (
	"time"

	"github.com/google/uuid"

	"github.com/scribe/scribe/internal/schema"
)

// VisitExtraction is one persisted extraction result for a visit. A visit
// has at most one current (non-superseded) row; re-running extraction
// supersedes the previous row instead of deleting it.
type VisitExtraction struct {
	ID            uuid.UUID                  `json:"id"`
	VisitID       uuid.UUID                  `json:"visitId"`
	Record        *schema.ClinicalExtraction `json:"record"`
	MissingFields []string                   `json:"missingFields"`
	RedFlags      []string                   `json:"redFlags"`
	Status        string                     `json:"status"`
	Superseded    bool                       `json:"superseded"`
	CreatedAt     time.Time                  `json:"createdAt"`
	UpdatedAt     time.Time                  `json:"updatedAt"`
}

// Analysis reassembles the stored analysis columns.
func (v *VisitExtraction) Analysis() AnalysisMetadata {
	return AnalysisMetadata{
		MissingFields: v.MissingFields,
		RedFlags:      v.RedFlags,
		Status:        v.Status,
	}
}

func (v *VisitExtraction) setAnalysis(meta AnalysisMetadata) {
	v.MissingFields = meta.MissingFields
	v.RedFlags = meta.RedFlags
	v.Status = meta.Status
}
