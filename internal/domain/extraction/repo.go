package extraction

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists visit extractions.
type Repository interface {
	Create(ctx context.Context, v *VisitExtraction) error
	GetCurrentByVisit(ctx context.Context, visitID uuid.UUID) (*VisitExtraction, error)
	Update(ctx context.Context, v *VisitExtraction) error
	SupersedeCurrent(ctx context.Context, visitID uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*VisitExtraction, int, error)
}
