package httpserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/banglahouse/resume-screener-backend/internal/config"
	"github.com/banglahouse/resume-screener-backend/internal/domain"
	"github.com/banglahouse/resume-screener-backend/internal/usecase"
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// Server bundles the handlers with their dependencies.
type Server struct {
	Cfg        config.Config
	Store      domain.Store
	Apps       *usecase.ApplicationService
	Chat       *usecase.ChatService
	Extractor  domain.TextExtractor
	DBCheck    func(context.Context) error
	RedisCheck func(context.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, store domain.Store, apps *usecase.ApplicationService, chat *usecase.ChatService, extractor domain.TextExtractor, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Store: store, Apps: apps, Chat: chat, Extractor: extractor, DBCheck: dbCheck, RedisCheck: redisCheck}
}

type matchResponse struct {
	Score               int      `json:"score"`
	Strengths           []string `json:"strengths"`
	Gaps                []string `json:"gaps"`
	ExtraSkills         []string `json:"extra_skills"`
	Insights            []string `json:"insights"`
	ExperienceHighlight *string  `json:"experience_highlight"`
}

func toMatchResponse(m domain.MatchResult) matchResponse {
	return matchResponse{
		Score:               m.Score,
		Strengths:           emptyIfNil(m.Strengths),
		Gaps:                emptyIfNil(m.Gaps),
		ExtraSkills:         emptyIfNil(m.ExtraSkills),
		Insights:            emptyIfNil(m.Insights),
		ExperienceHighlight: m.ExperienceHighlight,
	}
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func callerFrom(w http.ResponseWriter, r *http.Request) (domain.AuthUser, bool) {
	caller, ok := AuthUserFromContext(r.Context())
	if !ok {
		writeError(w, r, fmt.Errorf("op=http.auth: missing auth context: %w", domain.ErrForbidden), nil)
		return domain.AuthUser{}, false
	}
	return caller, true
}

// CreateApplicationHandler ingests a JD/resume pair from a multipart form.
func (s *Server) CreateApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes*2)
		if err := r.ParseMultipartForm(maxBytes * 2); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code:    "INVALID_ARGUMENT",
					Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		jobKey := strings.TrimSpace(r.FormValue("job_key"))
		if res := ValidateJobKey(jobKey); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid job_key", domain.ErrInvalidArgument), res.Errors)
			return
		}
		candidateID := strings.TrimSpace(r.FormValue("candidate_user_id"))
		if candidateID == "" {
			writeError(w, r, fmt.Errorf("%w: candidate_user_id required", domain.ErrInvalidArgument), map[string]string{"field": "candidate_user_id"})
			return
		}

		jdText, _, err := s.extractFormFile(r, "jd_file")
		if err != nil {
			writeError(w, r, err, map[string]string{"field": "jd_file"})
			return
		}
		resumeText, resumeName, err := s.extractFormFile(r, "resume_file")
		if err != nil {
			writeError(w, r, err, map[string]string{"field": "resume_file"})
			return
		}

		out, err := s.Apps.CreateApplication(r.Context(), caller, usecase.CreateApplicationInput{
			JobKey:              jobKey,
			JobTitle:            strings.TrimSpace(r.FormValue("job_title")),
			CandidateExternalID: candidateID,
			JDText:              jdText,
			ResumeText:          resumeText,
			ResumeFilename:      resumeName,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"application_id": out.ApplicationID,
			"job_id":         out.JobID,
			"match":          toMatchResponse(out.Match),
		})
	}
}

// extractFormFile reads one uploaded file and runs it through the text
// extractor.
func (s *Server) extractFormFile(r *http.Request, field string) (string, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s required", domain.ErrInvalidArgument, field)
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(file)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s read: %v", domain.ErrInvalidArgument, field, err)
	}
	text, err := s.Extractor.Extract(r.Context(), header.Filename, data)
	if err != nil {
		return "", "", err
	}
	return text, header.Filename, nil
}

// GetApplicationHandler returns an application's match snapshot to its owner.
func (s *Server) GetApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		detail, err := s.Apps.GetApplication(r.Context(), caller, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"application_id": detail.Application.ID,
			"job_key":        detail.JobKey,
			"job_title":      detail.JobTitle,
			"match":          toMatchResponse(detail.Application.Match),
			"created_at":     detail.Application.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}

// ListJobApplicationsHandler returns a recruiter's applications for one job.
func (s *Server) ListJobApplicationsHandler() http.HandlerFunc {
	type listing struct {
		ApplicationID   string `json:"application_id"`
		CandidateUserID string `json:"candidate_user_id"`
		MatchScore      int    `json:"match_score"`
		CreatedAt       string `json:"created_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		jobKey := chi.URLParam(r, "jobKey")
		apps, err := s.Apps.ListJobApplications(r.Context(), caller, jobKey)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]listing, len(apps))
		for i, a := range apps {
			out[i] = listing{
				ApplicationID:   a.ApplicationID,
				CandidateUserID: a.CandidateExternalID,
				MatchScore:      a.MatchScore,
				CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"job_key": jobKey, "applications": out})
	}
}

// ChatHandler answers a question about an application.
func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Question string `json:"question" validate:"required,max=2000"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		out, err := s.Chat.Chat(r.Context(), caller, chi.URLParam(r, "id"), req.Question)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"answer": out.Answer, "sources": out.Sources})
	}
}

// ChatHistoryHandler returns the conversation in chronological order.
func (s *Server) ChatHistoryHandler() http.HandlerFunc {
	type message struct {
		Role      string `json:"role"`
		Content   string `json:"content"`
		CreatedAt string `json:"created_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		applicationID := chi.URLParam(r, "id")
		limit := queryInt(r, "limit", 50)
		offset := queryInt(r, "offset", 0)
		turns, err := s.Chat.History(r.Context(), caller, applicationID, limit, offset)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		msgs := make([]message, len(turns))
		for i, t := range turns {
			msgs[i] = message{
				Role:      string(t.Role),
				Content:   t.Content,
				CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"application_id": applicationID, "messages": msgs})
	}
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the database and, when configured, Redis.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.RedisCheck != nil {
			if err := s.RedisCheck(ctx); err != nil {
				checks = append(checks, check{Name: "redis", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "redis", OK: true})
			}
		}
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
