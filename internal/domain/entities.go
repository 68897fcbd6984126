// Package domain holds the core entities, ports, and error taxonomy of the
// resume screener. It has no dependencies on adapters; usecases and adapters
// depend on it.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrExtractionFailed    = errors.New("extraction failed")
	ErrPersistence         = errors.New("persistence failure")
)

// Role enumerates user roles.
type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
)

// User is an identity resolved from the upstream auth context.
type User struct {
	ID         string
	ExternalID string
	Role       Role
	CreatedAt  time.Time
}

// AuthUser is the authenticated caller attached to each request.
type AuthUser struct {
	ID         string
	ExternalID string
	Role       Role
}

// Job is a recruiter-owned job description. (recruiter, job_key) is unique;
// the uniqueness is enforced by storage, not re-checked by usecases.
type Job struct {
	ID          string
	RecruiterID string
	JobKey      string
	Title       string
	JDText      string
	CreatedAt   time.Time
}

// Resume is a candidate-owned resume text snapshot.
type Resume struct {
	ID          string
	CandidateID string
	RawText     string
	Filename    string
	CreatedAt   time.Time
}

// Corpus labels which document a chunk belongs to.
type Corpus string

const (
	CorpusJD     Corpus = "jd"
	CorpusResume Corpus = "resume"
)

// Chunk is a bounded slice of a source document paired with its embedding.
// Index is the 0-based position in the document's chunk sequence; chunks are
// immutable once written.
type Chunk struct {
	ID        string
	OwnerID   string
	Index     int
	Content   string
	Embedding []float32
}

// ScoredChunk is a nearest-neighbor query result, distance ascending.
type ScoredChunk struct {
	ID       string
	Content  string
	Distance float64
}

// SkillCategory is a closed set; unknown model output is coerced to other.
type SkillCategory string

const (
	SkillCategoryHard      SkillCategory = "hard"
	SkillCategorySoft      SkillCategory = "soft"
	SkillCategoryTool      SkillCategory = "tool"
	SkillCategoryTechnique SkillCategory = "technique"
	SkillCategoryDomain    SkillCategory = "domain"
	SkillCategoryOther     SkillCategory = "other"
)

// SkillImportance applies to job-description skills only; resume skills
// carry a nil importance (a resume asserts presence, never weight).
type SkillImportance string

const (
	ImportanceMustHave    SkillImportance = "must_have"
	ImportanceNiceToHave  SkillImportance = "nice_to_have"
	ImportanceUnspecified SkillImportance = "unspecified"
)

// SkillSource identifies the document a skill was extracted from.
type SkillSource string

const (
	SourceJobDescription SkillSource = "job_description"
	SourceResume         SkillSource = "resume"
)

// ExtractedSkill is one structured skill claim. NormalizedName is the dedup
// and matching key: non-empty and unique within a document's skill set.
type ExtractedSkill struct {
	Name             string
	NormalizedName   string
	Category         SkillCategory
	Importance       *SkillImportance
	EvidenceSnippets []string
	Source           SkillSource
}

// SkillMatchSummary is the scorer output. MatchScore is an integer in
// [0,100]. Derived once per job/resume pair and never mutated afterward.
type SkillMatchSummary struct {
	MatchScore   int
	Strengths    []string
	Gaps         []string
	ExtraSkills  []string
	JDSkills     []ExtractedSkill
	ResumeSkills []ExtractedSkill
}

// MatchResult is the persisted, read-only match snapshot of an application.
type MatchResult struct {
	Score               int
	Strengths           []string
	Gaps                []string
	ExtraSkills         []string
	Insights            []string
	ExperienceHighlight *string
}

// Application is an immutable snapshot of a job/resume pairing at creation
// time.
type Application struct {
	ID        string
	JobID     string
	ResumeID  string
	Match     MatchResult
	CreatedAt time.Time
}

// ApplicationDetail carries the ownership ids needed for access checks
// alongside the application itself.
type ApplicationDetail struct {
	Application Application
	JobKey      string
	JobTitle    string
	RecruiterID string
	CandidateID string
}

// ApplicationListing is one row of a recruiter's per-job application list.
type ApplicationListing struct {
	ApplicationID       string
	CandidateExternalID string
	MatchScore          int
	CreatedAt           time.Time
}

// ChatRole enumerates chat turn roles.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

// ChatTurn is one append-only conversation turn scoped to an application.
type ChatTurn struct {
	ID            string
	ApplicationID string
	Role          ChatRole
	Content       string
	CreatedAt     time.Time
}

// ChatSource cites a retrieved chunk that grounded an answer.
type ChatSource struct {
	Type    Corpus `json:"type"`
	ChunkID string `json:"chunk_id"`
	Excerpt string `json:"excerpt"`
}

// ChatMessage is a provider-facing prompt message.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

/// AIClient is the LLM provider port: embeddings plus chat completions.
// Embed preserves input order (one vector per text) and fails on transport
// errors or shape mismatches; it does not retry, retry is caller policy.
type AIClient interface {
	Embed(ctx Context, texts []string) ([][]float32, error)
	Complete(ctx Context, msgs []ChatMessage, temperature float64, maxTokens int) (string, error)
}

// Repositories (ports)

type UserRepository interface {
	UpsertByExternalID(ctx Context, externalID string, role Role) (User, error)
	GetByExternalID(ctx Context, externalID string) (User, error)
}

type JobRepository interface {
	Create(ctx Context, j Job) (string, error)
	FindByRecruiterAndKey(ctx Context, recruiterID, jobKey string) (Job, error)
}

type ResumeRepository interface {
	Create(ctx Context, r Resume) (string, error)
}

// ChunkRepository persists and queries document chunks. Nearest queries
// return results ordered by ascending vector distance.
type ChunkRepository interface {
	InsertJobChunks(ctx Context, jobID string, chunks []Chunk) error
	InsertResumeChunks(ctx Context, resumeID string, chunks []Chunk) error
	NearestJobChunks(ctx Context, jobID string, query []float32, k int) ([]ScoredChunk, error)
	NearestResumeChunks(ctx Context, resumeID string, query []float32, k int) ([]ScoredChunk, error)
}

type ApplicationRepository interface {
	Create(ctx Context, a Application) (string, error)
	GetDetail(ctx Context, id string) (ApplicationDetail, error)
	ListByJob(ctx Context, jobID string) ([]ApplicationListing, error)
}

// ChatRepository persists conversation turns. AppendExchange writes the
// user question and assistant answer in one transaction: both or neither.
type ChatRepository interface {
	AppendExchange(ctx Context, applicationID, question, answer string) error
	RecentTurns(ctx Context, applicationID string, limit int) ([]ChatTurn, error)
	History(ctx Context, applicationID string, limit, offset int) ([]ChatTurn, error)
}

// Store bundles the repositories behind a single port and scopes them to a
// unit of work. WithTx runs fn against a transaction-bound Store; the
// transaction commits when fn returns nil and rolls back otherwise, so
// partial writes are never visible to readers.
type Store interface {
	Users() UserRepository
	Jobs() JobRepository
	Resumes() ResumeRepository
	Chunks() ChunkRepository
	Applications() ApplicationRepository
	Chat() ChatRepository
	WithTx(ctx Context, fn func(Store) error) error
}

// TextExtractor converts an uploaded binary document into normalized text.
type TextExtractor interface {
	Extract(ctx Context, filename string, data []byte) (string, error)
}

// Context is an alias so the domain package stays decoupled in signatures;
// adapters and usecases pass context.Context through.
type Context = context.Context
