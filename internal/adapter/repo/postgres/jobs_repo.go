package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// JobRepo persists and loads jobs.
type JobRepo struct{ Q Querier }

// Create stores a new job and returns its id. A duplicate
// (recruiter, job_key) pair maps to domain.ErrConflict.
func (r *JobRepo) Create(ctx domain.Context, j domain.Job) (string, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "jobs"),
	)
	id := j.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO jobs (id, recruiter_user_id, job_key, title, jd_text) VALUES ($1,$2,$3,$4,$5)`
	if _, err := r.Q.Exec(ctx, q, id, j.RecruiterID, j.JobKey, j.Title, j.JDText); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", fmt.Errorf("op=jobs.create: %w", domain.ErrConflict)
		}
		return "", fmt.Errorf("op=jobs.create: %w", err)
	}
	return id, nil
}

// FindByRecruiterAndKey loads a recruiter's job by key.
func (r *JobRepo) FindByRecruiterAndKey(ctx domain.Context, recruiterID, jobKey string) (domain.Job, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.FindByRecruiterAndKey")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "jobs"),
	)
	q := `SELECT id, recruiter_user_id, job_key, COALESCE(title, ''), jd_text, created_at
	      FROM jobs WHERE recruiter_user_id = $1 AND job_key = $2`
	row := r.Q.QueryRow(ctx, q, recruiterID, jobKey)
	var j domain.Job
	if err := row.Scan(&j.ID, &j.RecruiterID, &j.JobKey, &j.Title, &j.JDText, &j.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.Job{}, fmt.Errorf("op=jobs.find: %w", domain.ErrNotFound)
		}
		return domain.Job{}, fmt.Errorf("op=jobs.find: %w", err)
	}
	return j, nil
}
