package usecase

import (
	"fmt"
	"time"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// memStore is an in-memory domain.Store. WithTx snapshots state and restores
// it when fn fails, mirroring transactional rollback.
type memStore struct {
	users        []domain.User
	jobs         []domain.Job
	resumes      []domain.Resume
	jobChunks    map[string][]domain.Chunk
	resumeChunks map[string][]domain.Chunk
	apps         []domain.Application
	chatTurns    []domain.ChatTurn

	nearestJob    []domain.ScoredChunk
	nearestResume []domain.ScoredChunk

	nextID     int
	rolledBack bool
}

func newMemStore() *memStore {
	return &memStore{
		jobChunks:    map[string][]domain.Chunk{},
		resumeChunks: map[string][]domain.Chunk{},
	}
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memStore) Users() domain.UserRepository               { return m }
func (m *memStore) Jobs() domain.JobRepository                 { return m }
func (m *memStore) Resumes() domain.ResumeRepository           { return memResumes{m} }
func (m *memStore) Chunks() domain.ChunkRepository             { return m }
func (m *memStore) Applications() domain.ApplicationRepository { return memApps{m} }
func (m *memStore) Chat() domain.ChatRepository                { return m }

func (m *memStore) WithTx(_ domain.Context, fn func(domain.Store) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		m.rolledBack = true
		return err
	}
	return nil
}

func (m *memStore) snapshot() *memStore {
	c := &memStore{
		users:         append([]domain.User(nil), m.users...),
		jobs:          append([]domain.Job(nil), m.jobs...),
		resumes:       append([]domain.Resume(nil), m.resumes...),
		apps:          append([]domain.Application(nil), m.apps...),
		chatTurns:     append([]domain.ChatTurn(nil), m.chatTurns...),
		jobChunks:     map[string][]domain.Chunk{},
		resumeChunks:  map[string][]domain.Chunk{},
		nearestJob:    m.nearestJob,
		nearestResume: m.nearestResume,
		nextID:        m.nextID,
	}
	for k, v := range m.jobChunks {
		c.jobChunks[k] = append([]domain.Chunk(nil), v...)
	}
	for k, v := range m.resumeChunks {
		c.resumeChunks[k] = append([]domain.Chunk(nil), v...)
	}
	return c
}

func (m *memStore) restore(c *memStore) {
	m.users, m.jobs, m.resumes = c.users, c.jobs, c.resumes
	m.apps, m.chatTurns = c.apps, c.chatTurns
	m.jobChunks, m.resumeChunks = c.jobChunks, c.resumeChunks
	m.nextID = c.nextID
}

func (m *memStore) UpsertByExternalID(_ domain.Context, externalID string, role domain.Role) (domain.User, error) {
	for _, u := range m.users {
		if u.ExternalID == externalID {
			return u, nil
		}
	}
	u := domain.User{ID: m.id("user"), ExternalID: externalID, Role: role, CreatedAt: time.Now()}
	m.users = append(m.users, u)
	return u, nil
}

func (m *memStore) GetByExternalID(_ domain.Context, externalID string) (domain.User, error) {
	for _, u := range m.users {
		if u.ExternalID == externalID {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memStore) Create(_ domain.Context, j domain.Job) (string, error) {
	j.ID = m.id("job")
	j.CreatedAt = time.Now()
	m.jobs = append(m.jobs, j)
	return j.ID, nil
}

func (m *memStore) FindByRecruiterAndKey(_ domain.Context, recruiterID, jobKey string) (domain.Job, error) {
	for _, j := range m.jobs {
		if j.RecruiterID == recruiterID && j.JobKey == jobKey {
			return j, nil
		}
	}
	return domain.Job{}, domain.ErrNotFound
}

func (m *memStore) createResume(r domain.Resume) (string, error) {
	r.ID = m.id("resume")
	r.CreatedAt = time.Now()
	m.resumes = append(m.resumes, r)
	return r.ID, nil
}

func (m *memStore) InsertJobChunks(_ domain.Context, jobID string, chunks []domain.Chunk) error {
	m.jobChunks[jobID] = append(m.jobChunks[jobID], chunks...)
	return nil
}

func (m *memStore) InsertResumeChunks(_ domain.Context, resumeID string, chunks []domain.Chunk) error {
	m.resumeChunks[resumeID] = append(m.resumeChunks[resumeID], chunks...)
	return nil
}

func (m *memStore) NearestJobChunks(_ domain.Context, _ string, _ []float32, k int) ([]domain.ScoredChunk, error) {
	return capChunks(m.nearestJob, k), nil
}

func (m *memStore) NearestResumeChunks(_ domain.Context, _ string, _ []float32, k int) ([]domain.ScoredChunk, error) {
	return capChunks(m.nearestResume, k), nil
}

func capChunks(cs []domain.ScoredChunk, k int) []domain.ScoredChunk {
	if len(cs) > k {
		return cs[:k]
	}
	return cs
}

func (m *memStore) createApplication(a domain.Application) (string, error) {
	a.ID = m.id("app")
	a.CreatedAt = time.Now()
	m.apps = append(m.apps, a)
	return a.ID, nil
}

func (m *memStore) GetDetail(_ domain.Context, id string) (domain.ApplicationDetail, error) {
	for _, a := range m.apps {
		if a.ID != id {
			continue
		}
		d := domain.ApplicationDetail{Application: a}
		for _, j := range m.jobs {
			if j.ID == a.JobID {
				d.JobKey, d.JobTitle, d.RecruiterID = j.JobKey, j.Title, j.RecruiterID
			}
		}
		for _, r := range m.resumes {
			if r.ID == a.ResumeID {
				d.CandidateID = r.CandidateID
			}
		}
		return d, nil
	}
	return domain.ApplicationDetail{}, domain.ErrNotFound
}

func (m *memStore) ListByJob(_ domain.Context, jobID string) ([]domain.ApplicationListing, error) {
	var out []domain.ApplicationListing
	for i := len(m.apps) - 1; i >= 0; i-- {
		a := m.apps[i]
		if a.JobID != jobID {
			continue
		}
		out = append(out, domain.ApplicationListing{
			ApplicationID: a.ID,
			MatchScore:    a.Match.Score,
			CreatedAt:     a.CreatedAt,
		})
	}
	return out, nil
}

func (m *memStore) AppendExchange(_ domain.Context, applicationID, question, answer string) error {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(len(m.chatTurns)) * time.Second)
	m.chatTurns = append(m.chatTurns,
		domain.ChatTurn{ID: m.id("turn"), ApplicationID: applicationID, Role: domain.ChatRoleUser, Content: question, CreatedAt: base},
		domain.ChatTurn{ID: m.id("turn"), ApplicationID: applicationID, Role: domain.ChatRoleAssistant, Content: answer, CreatedAt: base.Add(time.Millisecond)},
	)
	return nil
}

func (m *memStore) RecentTurns(_ domain.Context, applicationID string, limit int) ([]domain.ChatTurn, error) {
	var out []domain.ChatTurn
	for i := len(m.chatTurns) - 1; i >= 0 && len(out) < limit; i-- {
		if m.chatTurns[i].ApplicationID == applicationID {
			out = append(out, m.chatTurns[i])
		}
	}
	return out, nil
}

func (m *memStore) History(_ domain.Context, applicationID string, limit, offset int) ([]domain.ChatTurn, error) {
	var all []domain.ChatTurn
	for _, t := range m.chatTurns {
		if t.ApplicationID == applicationID {
			all = append(all, t)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// The resume and application ports both declare Create, so they get small
// adapter types instead of methods on memStore itself.
type memResumes struct{ m *memStore }

func (r memResumes) Create(_ domain.Context, res domain.Resume) (string, error) {
	return r.m.createResume(res)
}

type memApps struct{ m *memStore }

func (a memApps) Create(_ domain.Context, app domain.Application) (string, error) {
	return a.m.createApplication(app)
}

func (a memApps) GetDetail(ctx domain.Context, id string) (domain.ApplicationDetail, error) {
	return a.m.GetDetail(ctx, id)
}

func (a memApps) ListByJob(ctx domain.Context, jobID string) ([]domain.ApplicationListing, error) {
	return a.m.ListByJob(ctx, jobID)
}

// fakeAI is a scriptable domain.AIClient.
type fakeAI struct {
	embedCalls    int
	embeddedTexts [][]string
	embedErr      error

	completeCalls int
	lastMsgs      []domain.ChatMessage
	lastTemp      float64
	lastMaxTokens int
	answer        string
	completeErr   error
}

func (f *fakeAI) Embed(_ domain.Context, texts []string) ([][]float32, error) {
	f.embedCalls++
	f.embeddedTexts = append(f.embeddedTexts, texts)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (f *fakeAI) Complete(_ domain.Context, msgs []domain.ChatMessage, temp float64, maxTokens int) (string, error) {
	f.completeCalls++
	f.lastMsgs = msgs
	f.lastTemp = temp
	f.lastMaxTokens = maxTokens
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.answer, nil
}

// fixedAnalyzer returns a canned summary.
type fixedAnalyzer struct {
	summary domain.SkillMatchSummary
	err     error
}

func (f fixedAnalyzer) Analyze(_ domain.Context, _, _ string) (domain.SkillMatchSummary, error) {
	return f.summary, f.err
}
