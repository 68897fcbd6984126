package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

var (
	recruiter = domain.AuthUser{ID: "rec-1", ExternalID: "recruiter-a", Role: domain.RoleRecruiter}
	candidate = domain.AuthUser{ID: "cand-1", ExternalID: "candidate-a", Role: domain.RoleCandidate}
)

func validInput() CreateApplicationInput {
	return CreateApplicationInput{
		JobKey:              "backend-2025",
		JobTitle:            "Backend Engineer",
		CandidateExternalID: "candidate-a",
		JDText:              strings.Repeat("Go engineer with Postgres and Kubernetes experience. ", 10),
		ResumeText:          strings.Repeat("5 years of Go and Postgres in production. ", 10),
		ResumeFilename:      "resume.pdf",
	}
}

func makeSummary(score int) domain.SkillMatchSummary {
	return domain.SkillMatchSummary{
		MatchScore: score,
		Strengths:  []string{"go", "postgres"},
		Gaps:       []string{"kubernetes"},
		JDSkills: []domain.ExtractedSkill{
			{Name: "Go", NormalizedName: "go"},
			{Name: "Postgres", NormalizedName: "postgres"},
			{Name: "Kubernetes", NormalizedName: "kubernetes"},
		},
		ResumeSkills: []domain.ExtractedSkill{
			{Name: "Go", NormalizedName: "go"},
			{Name: "Postgres", NormalizedName: "postgres"},
		},
	}
}

func newAppService(store *memStore, ai *fakeAI, an fixedAnalyzer) *ApplicationService {
	return NewApplicationService(store, ai, an, 1500, 200)
}

func TestCreateApplication(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	ai := &fakeAI{}
	svc := newAppService(store, ai, fixedAnalyzer{summary: makeSummary(67)})

	out, err := svc.CreateApplication(context.Background(), recruiter, validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, out.ApplicationID)
	assert.NotEmpty(t, out.JobID)
	assert.Equal(t, 67, out.Match.Score)
	assert.Contains(t, out.Match.Insights[0], "Matched 2/3 JD skills")

	require.Len(t, store.jobs, 1)
	require.Len(t, store.resumes, 1)
	require.Len(t, store.apps, 1)
	assert.Equal(t, "rec-1", store.jobs[0].RecruiterID)
	assert.Equal(t, "resume.pdf", store.resumes[0].Filename)
	assert.NotEmpty(t, store.jobChunks[out.JobID])
	assert.NotEmpty(t, store.resumeChunks[store.resumes[0].ID])

	// Candidate user was upserted with the candidate role.
	u, err := store.GetByExternalID(context.Background(), "candidate-a")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCandidate, u.Role)

	// One embedding batch per document.
	assert.Equal(t, 2, ai.embedCalls)
}

func TestCreateApplicationRequiresRecruiter(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	ai := &fakeAI{}
	svc := newAppService(store, ai, fixedAnalyzer{summary: makeSummary(50)})

	_, err := svc.CreateApplication(context.Background(), candidate, validInput())
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, store.jobs)
	assert.Zero(t, ai.embedCalls)
}

func TestCreateApplicationMissingFields(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := newAppService(store, &fakeAI{}, fixedAnalyzer{summary: makeSummary(50)})

	in := validInput()
	in.CandidateExternalID = "  "
	_, err := svc.CreateApplication(context.Background(), recruiter, in)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Empty(t, store.apps)
}

func TestCreateApplicationReusesExistingJob(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	ai := &fakeAI{}
	svc := newAppService(store, ai, fixedAnalyzer{summary: makeSummary(40)})

	_, err := svc.CreateApplication(context.Background(), recruiter, validInput())
	require.NoError(t, err)
	require.Equal(t, 2, ai.embedCalls)

	in := validInput()
	in.CandidateExternalID = "candidate-b"
	_, err = svc.CreateApplication(context.Background(), recruiter, in)
	require.NoError(t, err)

	assert.Len(t, store.jobs, 1)
	assert.Len(t, store.apps, 2)
	// The second ingestion embeds the resume only.
	assert.Equal(t, 3, ai.embedCalls)
}

func TestCreateApplicationRollsBackOnAnalysisFailure(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := newAppService(store, &fakeAI{}, fixedAnalyzer{err: domain.ErrExtractionFailed})

	_, err := svc.CreateApplication(context.Background(), recruiter, validInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)

	assert.True(t, store.rolledBack)
	assert.Empty(t, store.jobs)
	assert.Empty(t, store.resumes)
	assert.Empty(t, store.apps)
	assert.Empty(t, store.users)
}

func TestCreateApplicationRollsBackOnEmbedFailure(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	ai := &fakeAI{embedErr: domain.ErrProviderUnavailable}
	svc := newAppService(store, ai, fixedAnalyzer{summary: makeSummary(40)})

	_, err := svc.CreateApplication(context.Background(), recruiter, validInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.True(t, store.rolledBack)
	assert.Empty(t, store.jobs)
}

func TestGetApplicationAccess(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := newAppService(store, &fakeAI{}, fixedAnalyzer{summary: makeSummary(55)})

	out, err := svc.CreateApplication(context.Background(), recruiter, validInput())
	require.NoError(t, err)

	owner, err := store.GetByExternalID(context.Background(), "candidate-a")
	require.NoError(t, err)

	// Owning recruiter.
	detail, err := svc.GetApplication(context.Background(), recruiter, out.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, "backend-2025", detail.JobKey)
	assert.Equal(t, 55, detail.Application.Match.Score)

	// Owning candidate.
	_, err = svc.GetApplication(context.Background(), domain.AuthUser{ID: owner.ID, Role: domain.RoleCandidate}, out.ApplicationID)
	require.NoError(t, err)

	// Unrelated recruiter.
	_, err = svc.GetApplication(context.Background(), domain.AuthUser{ID: "rec-2", Role: domain.RoleRecruiter}, out.ApplicationID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Unknown application.
	_, err = svc.GetApplication(context.Background(), recruiter, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListJobApplications(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := newAppService(store, &fakeAI{}, fixedAnalyzer{summary: makeSummary(70)})

	_, err := svc.CreateApplication(context.Background(), recruiter, validInput())
	require.NoError(t, err)
	in := validInput()
	in.CandidateExternalID = "candidate-b"
	_, err = svc.CreateApplication(context.Background(), recruiter, in)
	require.NoError(t, err)

	list, err := svc.ListJobApplications(context.Background(), recruiter, "backend-2025")
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Newest first.
	assert.True(t, !list[0].CreatedAt.Before(list[1].CreatedAt))

	_, err = svc.ListJobApplications(context.Background(), candidate, "backend-2025")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ListJobApplications(context.Background(), recruiter, "missing-key")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckApplicationAccessUnknownRole(t *testing.T) {
	t.Parallel()
	err := checkApplicationAccess(domain.AuthUser{ID: "x", Role: domain.Role("admin")}, domain.ApplicationDetail{RecruiterID: "x", CandidateID: "x"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
