package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scribe/scribe/internal/schema"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates a Postgres-backed extraction repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const extractionCols = `id, visit_id, record, missing_fields, red_flags, status,
	superseded, created_at, updated_at`

func scanExtraction(row pgx.Row) (*VisitExtraction, error) {
	var v VisitExtraction
	var record []byte
	err := row.Scan(&v.ID, &v.VisitID, &record, &v.MissingFields, &v.RedFlags,
		&v.Status, &v.Superseded, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	var rec schema.ClinicalExtraction
	if err := json.Unmarshal(record, &rec); err != nil {
		return nil, fmt.Errorf("decode stored record %s: %w", v.ID, err)
	}
	v.Record = &rec
	return &v, nil
}

func (r *repoPG) Create(ctx context.Context, v *VisitExtraction) error {
	v.ID = uuid.New()
	record, err := json.Marshal(v.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO visit_extractions (id, visit_id, record, missing_fields, red_flags, status, superseded)
		VALUES ($1,$2,$3,$4,$5,$6,false)`,
		v.ID, v.VisitID, record, v.MissingFields, v.RedFlags, v.Status)
	return err
}

func (r *repoPG) GetCurrentByVisit(ctx context.Context, visitID uuid.UUID) (*VisitExtraction, error) {
	v, err := scanExtraction(r.pool.QueryRow(ctx, `
		SELECT `+extractionCols+` FROM visit_extractions
		WHERE visit_id = $1 AND superseded = false`, visitID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{VisitID: visitID.String()}
	}
	return v, err
}

func (r *repoPG) Update(ctx context.Context, v *VisitExtraction) error {
	record, err := json.Marshal(v.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE visit_extractions
		SET record=$2, missing_fields=$3, red_flags=$4, status=$5, updated_at=NOW()
		WHERE id = $1`,
		v.ID, record, v.MissingFields, v.RedFlags, v.Status)
	return err
}

func (r *repoPG) SupersedeCurrent(ctx context.Context, visitID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE visit_extractions SET superseded = true, updated_at = NOW()
		WHERE visit_id = $1 AND superseded = false`, visitID)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*VisitExtraction, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM visit_extractions WHERE superseded = false`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+extractionCols+` FROM visit_extractions
		WHERE superseded = false
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*VisitExtraction
	for rows.Next() {
		v, err := scanExtraction(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}
