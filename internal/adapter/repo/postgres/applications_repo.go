package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// ApplicationRepo persists applications with their match snapshots.
type ApplicationRepo struct{ Q Querier }

// Create stores a new application and returns its id.
func (r *ApplicationRepo) Create(ctx domain.Context, a domain.Application) (string, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "applications"),
	)
	strengths, err := jsonList(a.Match.Strengths)
	if err != nil {
		return "", fmt.Errorf("op=applications.create: %w", err)
	}
	gaps, err := jsonList(a.Match.Gaps)
	if err != nil {
		return "", fmt.Errorf("op=applications.create: %w", err)
	}
	extras, err := jsonList(a.Match.ExtraSkills)
	if err != nil {
		return "", fmt.Errorf("op=applications.create: %w", err)
	}
	insights, err := jsonList(a.Match.Insights)
	if err != nil {
		return "", fmt.Errorf("op=applications.create: %w", err)
	}
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO applications (id, job_id, resume_id, match_score, strengths, gaps, extra_skills, insights, experience_highlight)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	if _, err := r.Q.Exec(ctx, q, id, a.JobID, a.ResumeID, a.Match.Score, strengths, gaps, extras, insights, a.Match.ExperienceHighlight); err != nil {
		return "", fmt.Errorf("op=applications.create: %w", err)
	}
	return id, nil
}

// GetDetail loads an application plus the ownership ids needed for access
// checks.
func (r *ApplicationRepo) GetDetail(ctx domain.Context, id string) (domain.ApplicationDetail, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.GetDetail")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "applications"),
	)
	q := `SELECT a.id, a.job_id, a.resume_id, a.match_score,
	             a.strengths, a.gaps, a.extra_skills, a.insights, a.experience_highlight,
	             a.created_at, j.job_key, COALESCE(j.title, ''), j.recruiter_user_id,
	             COALESCE(res.candidate_user_id::text, '')
	      FROM applications a
	      JOIN jobs j ON j.id = a.job_id
	      JOIN resumes res ON res.id = a.resume_id
	      WHERE a.id = $1`
	row := r.Q.QueryRow(ctx, q, id)
	var (
		d                                 domain.ApplicationDetail
		strengths, gaps, extras, insights []byte
	)
	err := row.Scan(
		&d.Application.ID, &d.Application.JobID, &d.Application.ResumeID, &d.Application.Match.Score,
		&strengths, &gaps, &extras, &insights, &d.Application.Match.ExperienceHighlight,
		&d.Application.CreatedAt, &d.JobKey, &d.JobTitle, &d.RecruiterID, &d.CandidateID,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ApplicationDetail{}, fmt.Errorf("op=applications.get: %w", domain.ErrNotFound)
		}
		return domain.ApplicationDetail{}, fmt.Errorf("op=applications.get: %w", err)
	}
	for _, pair := range []struct {
		raw []byte
		dst *[]string
	}{
		{strengths, &d.Application.Match.Strengths},
		{gaps, &d.Application.Match.Gaps},
		{extras, &d.Application.Match.ExtraSkills},
		{insights, &d.Application.Match.Insights},
	} {
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return domain.ApplicationDetail{}, fmt.Errorf("op=applications.get: %w", err)
		}
	}
	return d, nil
}

// ListByJob returns a job's applications, newest first.
func (r *ApplicationRepo) ListByJob(ctx domain.Context, jobID string) ([]domain.ApplicationListing, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.ListByJob")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "applications"),
	)
	q := `SELECT a.id, COALESCE(u.external_id, ''), a.match_score, a.created_at
	      FROM applications a
	      JOIN resumes res ON res.id = a.resume_id
	      LEFT JOIN users u ON u.id = res.candidate_user_id
	      WHERE a.job_id = $1
	      ORDER BY a.created_at DESC`
	rows, err := r.Q.Query(ctx, q, jobID)
	if err != nil {
		return nil, fmt.Errorf("op=applications.list: %w", err)
	}
	defer rows.Close()
	var out []domain.ApplicationListing
	for rows.Next() {
		var l domain.ApplicationListing
		if err := rows.Scan(&l.ApplicationID, &l.CandidateExternalID, &l.MatchScore, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=applications.list: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=applications.list: %w", err)
	}
	return out, nil
}

// jsonList marshals a string slice as a JSONB array, never null.
func jsonList(ss []string) ([]byte, error) {
	if ss == nil {
		ss = []string{}
	}
	return json.Marshal(ss)
}
