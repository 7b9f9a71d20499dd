package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scribe/scribe/internal/platform/locker"
	"github.com/scribe/scribe/internal/schema"
)

// ErrNoSources rejects extraction requests carrying an empty source list.
var ErrNoSources = errors.New("at least one source is required")

// Service runs the extraction pipeline end to end and owns the per-visit
// write lock around everything that persists.
type Service struct {
	repo     Repository
	engine   *Engine
	locks    locker.VisitLocker
	resolver *Resolver
	logger   zerolog.Logger
}

// NewService wires the pipeline.
func NewService(repo Repository, engine *Engine, locks locker.VisitLocker, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
		locks:  locks,
		logger: logger.With().Str("component", "extraction_service").Logger(),
	}
}

// SetResolver enables in-process reduction of raw audio, image and document
// sources. Without a resolver, only pre-extracted text sources are accepted.
func (s *Service) SetResolver(r *Resolver) {
	s.resolver = r
}

// RunExtraction aggregates the sources, extracts and validates a record,
// analyzes it, and persists it as the visit's current extraction. Any
// previous current row is superseded, never deleted.
func (s *Service) RunExtraction(ctx context.Context, visitID uuid.UUID, sources []Source) (*VisitExtraction, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	if s.resolver != nil {
		resolved, err := s.resolver.Resolve(ctx, sources)
		if err != nil {
			return nil, err
		}
		sources = resolved
	}

	corpus, err := Aggregate(sources)
	if err != nil {
		return nil, &InvalidSourceError{Err: err}
	}

	raw, err := s.engine.Extract(ctx, corpus)
	if err != nil {
		return nil, err
	}

	rec, err := schema.Validate(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("visit_id", visitID.String()).Msg("candidate record failed validation")
		return nil, err
	}

	v := &VisitExtraction{VisitID: visitID, Record: rec}
	v.setAnalysis(Analyze(rec))

	unlock, err := s.locks.Lock(ctx, visitID.String())
	if err != nil {
		return nil, fmt.Errorf("acquire visit lock: %w", err)
	}
	defer func() {
		if err := unlock(ctx); err != nil {
			s.logger.Error().Err(err).Str("visit_id", visitID.String()).Msg("release visit lock")
		}
	}()

	if err := s.repo.SupersedeCurrent(ctx, visitID); err != nil {
		return nil, fmt.Errorf("supersede previous extraction: %w", err)
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("persist extraction: %w", err)
	}

	s.logger.Info().
		Str("visit_id", visitID.String()).
		Str("status", v.Status).
		Int("red_flags", len(v.RedFlags)).
		Msg("extraction stored")
	return v, nil
}

// ApplyEdit applies one path-addressed edit to the visit's current record,
// re-analyzes it, and persists the result under the visit lock.
func (s *Service) ApplyEdit(ctx context.Context, visitID uuid.UUID, path string, value json.RawMessage) (*VisitExtraction, error) {
	unlock, err := s.locks.Lock(ctx, visitID.String())
	if err != nil {
		return nil, fmt.Errorf("acquire visit lock: %w", err)
	}
	defer func() {
		if err := unlock(ctx); err != nil {
			s.logger.Error().Err(err).Str("visit_id", visitID.String()).Msg("release visit lock")
		}
	}()

	v, err := s.repo.GetCurrentByVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	edited, err := ApplyEdit(v.Record, path, value)
	if err != nil {
		return nil, err
	}

	v.Record = edited
	v.setAnalysis(Analyze(edited))

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("persist edit: %w", err)
	}

	s.logger.Info().
		Str("visit_id", visitID.String()).
		Str("path", path).
		Str("status", v.Status).
		Msg("edit applied")
	return v, nil
}

// GetCurrent returns the visit's current extraction.
func (s *Service) GetCurrent(ctx context.Context, visitID uuid.UUID) (*VisitExtraction, error) {
	return s.repo.GetCurrentByVisit(ctx, visitID)
}

// List returns current extractions across visits, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*VisitExtraction, int, error) {
	return s.repo.List(ctx, limit, offset)
}
