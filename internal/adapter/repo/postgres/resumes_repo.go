package postgres

import (
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// ResumeRepo persists resumes.
type ResumeRepo struct{ Q Querier }

// Create stores a new resume snapshot and returns its id.
func (r *ResumeRepo) Create(ctx domain.Context, res domain.Resume) (string, error) {
	tracer := otel.Tracer("repo.resumes")
	ctx, span := tracer.Start(ctx, "resumes.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "resumes"),
	)
	id := res.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO resumes (id, candidate_user_id, raw_text, filename) VALUES ($1,$2,$3,$4)`
	if _, err := r.Q.Exec(ctx, q, id, res.CandidateID, res.RawText, res.Filename); err != nil {
		return "", fmt.Errorf("op=resumes.create: %w", err)
	}
	return id, nil
}
