// Package usecase contains the application services that orchestrate the
// domain ports: ingestion with match scoring, and retrieval-grounded chat.
package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/banglahouse/resume-screener-backend/internal/adapter/observability"
	"github.com/banglahouse/resume-screener-backend/internal/domain"
	"github.com/banglahouse/resume-screener-backend/internal/skills"
	"github.com/banglahouse/resume-screener-backend/pkg/chunker"
)

// ApplicationService ingests job/resume pairs and serves application reads.
type ApplicationService struct {
	Store        domain.Store
	AI           domain.AIClient
	Analyzer     skills.Analyzer
	ChunkTarget  int
	ChunkOverlap int
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(store domain.Store, ai domain.AIClient, analyzer skills.Analyzer, chunkTarget, chunkOverlap int) *ApplicationService {
	return &ApplicationService{
		Store:        store,
		AI:           ai,
		Analyzer:     analyzer,
		ChunkTarget:  chunkTarget,
		ChunkOverlap: chunkOverlap,
	}
}

// CreateApplicationInput carries the extracted document texts plus the
// pairing metadata for one ingestion.
type CreateApplicationInput struct {
	JobKey              string
	JobTitle            string
	CandidateExternalID string
	JDText              string
	ResumeText          string
	ResumeFilename      string
}

// CreateApplicationOutput is the ingestion result returned to the caller.
type CreateApplicationOutput struct {
	ApplicationID string
	JobID         string
	Match         domain.MatchResult
}

// CreateApplication runs the full ingestion inside one transaction: candidate
// upsert, job find-or-create with chunking and embedding, resume persistence
// with chunking and embedding, skill analysis, and the application snapshot.
// Any failure rolls the whole unit back.
func (s *ApplicationService) CreateApplication(ctx domain.Context, caller domain.AuthUser, in CreateApplicationInput) (CreateApplicationOutput, error) {
	tracer := otel.Tracer("usecase.application")
	ctx, span := tracer.Start(ctx, "application.Create")
	defer span.End()

	if caller.Role != domain.RoleRecruiter {
		return CreateApplicationOutput{}, fmt.Errorf("op=application.create: only recruiters can create applications: %w", domain.ErrForbidden)
	}
	if strings.TrimSpace(in.JobKey) == "" || strings.TrimSpace(in.CandidateExternalID) == "" ||
		strings.TrimSpace(in.JDText) == "" || strings.TrimSpace(in.ResumeText) == "" {
		return CreateApplicationOutput{}, fmt.Errorf("op=application.create: missing required fields: %w", domain.ErrInvalidArgument)
	}

	var out CreateApplicationOutput
	err := s.Store.WithTx(ctx, func(tx domain.Store) error {
		candidate, err := tx.Users().UpsertByExternalID(ctx, in.CandidateExternalID, domain.RoleCandidate)
		if err != nil {
			return err
		}

		job, err := s.findOrCreateJob(ctx, tx, caller.ID, in)
		if err != nil {
			return err
		}

		resumeID, err := tx.Resumes().Create(ctx, domain.Resume{
			CandidateID: candidate.ID,
			RawText:     in.ResumeText,
			Filename:    in.ResumeFilename,
		})
		if err != nil {
			return err
		}
		resumeChunks, err := s.chunkAndEmbed(ctx, in.ResumeText)
		if err != nil {
			return err
		}
		if err := tx.Chunks().InsertResumeChunks(ctx, resumeID, resumeChunks); err != nil {
			return err
		}

		summary, err := s.Analyzer.Analyze(ctx, in.JDText, in.ResumeText)
		if err != nil {
			return err
		}
		match := skills.BuildMatchResult(summary, in.ResumeText)

		appID, err := tx.Applications().Create(ctx, domain.Application{
			JobID:    job.ID,
			ResumeID: resumeID,
			Match:    match,
		})
		if err != nil {
			return err
		}

		out = CreateApplicationOutput{ApplicationID: appID, JobID: job.ID, Match: match}
		return nil
	})
	if err != nil {
		return CreateApplicationOutput{}, err
	}

	observability.ApplicationsCreatedTotal.Inc()
	observability.MatchScoreHistogram.Observe(float64(out.Match.Score))
	slog.Info("created application",
		slog.String("application_id", out.ApplicationID),
		slog.String("job_id", out.JobID),
		slog.Int("match_score", out.Match.Score))
	return out, nil
}

// findOrCreateJob reuses an existing (recruiter, job_key) job; a new job is
// created with its chunk embeddings in the same transaction.
func (s *ApplicationService) findOrCreateJob(ctx domain.Context, tx domain.Store, recruiterID string, in CreateApplicationInput) (domain.Job, error) {
	job, err := tx.Jobs().FindByRecruiterAndKey(ctx, recruiterID, in.JobKey)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Job{}, err
	}

	job = domain.Job{
		RecruiterID: recruiterID,
		JobKey:      in.JobKey,
		Title:       in.JobTitle,
		JDText:      in.JDText,
	}
	jobID, err := tx.Jobs().Create(ctx, job)
	if err != nil {
		return domain.Job{}, err
	}
	job.ID = jobID

	jobChunks, err := s.chunkAndEmbed(ctx, in.JDText)
	if err != nil {
		return domain.Job{}, err
	}
	if err := tx.Chunks().InsertJobChunks(ctx, jobID, jobChunks); err != nil {
		return domain.Job{}, err
	}
	slog.Info("created job with chunks",
		slog.String("job_id", jobID),
		slog.Int("chunk_count", len(jobChunks)))
	return job, nil
}

// chunkAndEmbed splits a document and embeds every chunk in one provider call.
func (s *ApplicationService) chunkAndEmbed(ctx domain.Context, text string) ([]domain.Chunk, error) {
	contents := chunker.Split(text, s.ChunkTarget, s.ChunkOverlap)
	if len(contents) == 0 {
		return nil, fmt.Errorf("op=application.chunk: document produced no chunks: %w", domain.ErrInvalidArgument)
	}
	vectors, err := s.AI.Embed(ctx, contents)
	if err != nil {
		return nil, err
	}
	chunks := make([]domain.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = domain.Chunk{Index: i, Content: content, Embedding: vectors[i]}
	}
	return chunks, nil
}

// GetApplication loads an application for its recruiter or candidate owner.
func (s *ApplicationService) GetApplication(ctx domain.Context, caller domain.AuthUser, applicationID string) (domain.ApplicationDetail, error) {
	tracer := otel.Tracer("usecase.application")
	ctx, span := tracer.Start(ctx, "application.Get")
	defer span.End()

	detail, err := s.Store.Applications().GetDetail(ctx, applicationID)
	if err != nil {
		return domain.ApplicationDetail{}, err
	}
	if err := checkApplicationAccess(caller, detail); err != nil {
		return domain.ApplicationDetail{}, err
	}
	return detail, nil
}

// ListJobApplications returns a recruiter's applications for one job key,
// newest first.
func (s *ApplicationService) ListJobApplications(ctx domain.Context, caller domain.AuthUser, jobKey string) ([]domain.ApplicationListing, error) {
	tracer := otel.Tracer("usecase.application")
	ctx, span := tracer.Start(ctx, "application.ListByJob")
	defer span.End()

	if caller.Role != domain.RoleRecruiter {
		return nil, fmt.Errorf("op=application.list: only recruiters can view job applications: %w", domain.ErrForbidden)
	}
	job, err := s.Store.Jobs().FindByRecruiterAndKey(ctx, caller.ID, jobKey)
	if err != nil {
		return nil, err
	}
	return s.Store.Applications().ListByJob(ctx, job.ID)
}

// checkApplicationAccess permits the owning recruiter or the owning
// candidate and nobody else.
func checkApplicationAccess(caller domain.AuthUser, detail domain.ApplicationDetail) error {
	switch caller.Role {
	case domain.RoleRecruiter:
		if detail.RecruiterID == caller.ID {
			return nil
		}
	case domain.RoleCandidate:
		if detail.CandidateID == caller.ID {
			return nil
		}
	}
	return fmt.Errorf("op=application.access: %w", domain.ErrForbidden)
}
