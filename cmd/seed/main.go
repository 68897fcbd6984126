// Command seed loads demo fixtures through the regular ingestion path so the
// seeded data carries real chunks, embeddings, and match snapshots.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	ai "github.com/banglahouse/resume-screener-backend/internal/adapter/ai"
	"github.com/banglahouse/resume-screener-backend/internal/adapter/ai/openai"
	"github.com/banglahouse/resume-screener-backend/internal/adapter/ai/stub"
	"github.com/banglahouse/resume-screener-backend/internal/adapter/observability"
	"github.com/banglahouse/resume-screener-backend/internal/adapter/repo/postgres"
	"github.com/banglahouse/resume-screener-backend/internal/config"
	"github.com/banglahouse/resume-screener-backend/internal/domain"
	"github.com/banglahouse/resume-screener-backend/internal/skills"
	"github.com/banglahouse/resume-screener-backend/internal/usecase"
)

type fixtureFile struct {
	Fixtures []fixture `yaml:"fixtures"`
}

type fixture struct {
	Recruiter  string      `yaml:"recruiter"`
	JobKey     string      `yaml:"job_key"`
	JobTitle   string      `yaml:"job_title"`
	JDText     string      `yaml:"jd_text"`
	Candidates []candidate `yaml:"candidates"`
}

type candidate struct {
	ExternalID string `yaml:"external_id"`
	ResumeText string `yaml:"resume_text"`
}

func main() {
	path := flag.String("fixtures", "fixtures/demo.yaml", "path to the YAML fixture file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	raw, err := os.ReadFile(*path)
	if err != nil {
		slog.Error("read fixtures failed", slog.String("path", *path), slog.Any("error", err))
		os.Exit(1)
	}
	var ff fixtureFile
	if err := yaml.Unmarshal(raw, &ff); err != nil {
		slog.Error("parse fixtures failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var aicl domain.AIClient
	if cfg.UseStubAI {
		aicl = stub.New(cfg.EmbeddingsDim)
	} else {
		aicl = openai.New(cfg)
	}
	aicl = ai.NewEmbedCache(aicl, nil, cfg.EmbeddingsModel, cfg.EmbedCacheTTL)

	var analyzer skills.Analyzer
	switch cfg.SkillExtractor {
	case config.ExtractorDictionary:
		analyzer = skills.DictionaryAnalyzer{}
	default:
		analyzer = skills.NewLLMAnalyzer(aicl)
	}

	store := postgres.NewStore(pool)
	apps := usecase.NewApplicationService(store, aicl, analyzer, cfg.ChunkTargetChars, cfg.ChunkOverlapChars)

	seeded := 0
	for _, fx := range ff.Fixtures {
		recruiter, err := store.Users().UpsertByExternalID(ctx, fx.Recruiter, domain.RoleRecruiter)
		if err != nil {
			slog.Error("recruiter upsert failed", slog.String("recruiter", fx.Recruiter), slog.Any("error", err))
			os.Exit(1)
		}
		caller := domain.AuthUser{ID: recruiter.ID, ExternalID: recruiter.ExternalID, Role: recruiter.Role}

		for _, c := range fx.Candidates {
			out, err := apps.CreateApplication(ctx, caller, usecase.CreateApplicationInput{
				JobKey:              fx.JobKey,
				JobTitle:            fx.JobTitle,
				CandidateExternalID: c.ExternalID,
				JDText:              fx.JDText,
				ResumeText:          c.ResumeText,
				ResumeFilename:      c.ExternalID + ".txt",
			})
			if err != nil {
				slog.Error("seed application failed",
					slog.String("job_key", fx.JobKey),
					slog.String("candidate", c.ExternalID),
					slog.Any("error", err))
				os.Exit(1)
			}
			seeded++
			slog.Info("seeded application",
				slog.String("application_id", out.ApplicationID),
				slog.String("job_key", fx.JobKey),
				slog.String("candidate", c.ExternalID),
				slog.Int("match_score", out.Match.Score))
		}
	}
	slog.Info("seeding complete", slog.Int("applications", seeded))
}
