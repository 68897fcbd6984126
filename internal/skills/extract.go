package skills

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

const (
	// minExtractChars is the shortest input worth extracting from; anything
	// below it yields a normal empty result, not an error.
	minExtractChars = 80
	// maxPromptChars bounds the document prefix sent to the model.
	maxPromptChars = 9000
	// maxSkills caps how many skills are requested and kept.
	maxSkills = 30
	// maxEvidenceChars caps each evidence snippet.
	maxEvidenceChars = 280

	extractMaxTokens = 1200
)

// Extractor prompts an LLM for structured skill claims and post-processes
// the response into validated, deduplicated domain.ExtractedSkill values.
type Extractor struct {
	AI domain.AIClient
}

// NewExtractor constructs an Extractor over the given AI client.
func NewExtractor(ai domain.AIClient) *Extractor { return &Extractor{AI: ai} }

// rawExtraction mirrors the JSON the model is instructed to produce. All
// fields beyond name are optional and coerced after parsing.
type rawExtraction struct {
	DocumentType string     `json:"document_type"`
	Skills       []rawSkill `json:"skills"`
}

type rawSkill struct {
	Name             string   `json:"name"`
	NormalizedName   string   `json:"normalized_name"`
	Category         string   `json:"category"`
	Importance       string   `json:"importance"`
	EvidenceSnippets []string `json:"evidence_snippets"`
}

// Extract returns the structured skill set of a document. Inputs shorter
// than minExtractChars produce an empty, non-error result. Malformed model
// output is repaired with exactly one amended retry; a second failure
// surfaces domain.ErrExtractionFailed. Results are never fabricated.
func (e *Extractor) Extract(ctx domain.Context, source domain.SkillSource, text string) ([]domain.ExtractedSkill, error) {
	text = strings.TrimSpace(text)
	if len(text) < minExtractChars {
		return nil, nil
	}
	if len(text) > maxPromptChars {
		slog.Warn("document truncated for skill extraction",
			slog.String("source", string(source)),
			slog.Int("original_chars", len(text)),
			slog.Int("kept_chars", maxPromptChars))
		text = text[:maxPromptChars]
	}

	msgs := []domain.ChatMessage{
		{Role: domain.ChatRoleSystem, Content: extractionSystemPrompt(source)},
		{Role: domain.ChatRoleUser, Content: text},
	}
	out, err := e.AI.Complete(ctx, msgs, 0, extractMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("op=skills.extract: %w: %v", domain.ErrExtractionFailed, err)
	}

	raw, perr := parseExtraction(out)
	if perr != nil {
		slog.Warn("skill extraction returned malformed JSON, retrying once",
			slog.String("source", string(source)), slog.Any("error", perr))
		repair := append(msgs,
			domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: out},
			domain.ChatMessage{Role: domain.ChatRoleUser, Content: repairPrompt},
		)
		out, err = e.AI.Complete(ctx, repair, 0, extractMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("op=skills.extract_repair: %w: %v", domain.ErrExtractionFailed, err)
		}
		raw, perr = parseExtraction(out)
		if perr != nil {
			return nil, fmt.Errorf("op=skills.extract_repair: %w: %v", domain.ErrExtractionFailed, perr)
		}
	}

	return coerceSkills(raw.Skills, source), nil
}

// parseExtraction decodes the model response, tolerating markdown code
// fences around the JSON object.
func parseExtraction(s string) (rawExtraction, error) {
	var raw rawExtraction
	if err := json.Unmarshal([]byte(stripCodeFence(s)), &raw); err != nil {
		return rawExtraction{}, err
	}
	return raw, nil
}

// stripCodeFence removes a surrounding ```...``` block if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// drop an optional language tag such as "json"
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// coerceSkills validates and normalizes raw model skills: computes the
// normalized name, coerces category and importance onto their closed sets,
// truncates evidence, drops empty names, and deduplicates by normalized
// name keeping the first occurrence.
func coerceSkills(raws []rawSkill, source domain.SkillSource) []domain.ExtractedSkill {
	seen := make(map[string]struct{}, len(raws))
	out := make([]domain.ExtractedSkill, 0, len(raws))
	for _, r := range raws {
		name := strings.TrimSpace(r.Name)
		normalized := NormalizeName(name)
		if name == "" || normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}

		s := domain.ExtractedSkill{
			Name:           name,
			NormalizedName: normalized,
			Category:       coerceCategory(r.Category),
			Importance:     coerceImportance(r.Importance, source),
			Source:         source,
		}
		for _, ev := range r.EvidenceSnippets {
			ev = strings.TrimSpace(ev)
			if ev == "" {
				continue
			}
			if len(ev) > maxEvidenceChars {
				ev = ev[:maxEvidenceChars]
			}
			s.EvidenceSnippets = append(s.EvidenceSnippets, ev)
		}
		out = append(out, s)
		if len(out) == maxSkills {
			break
		}
	}
	return out
}

func coerceCategory(s string) domain.SkillCategory {
	switch domain.SkillCategory(strings.ToLower(strings.TrimSpace(s))) {
	case domain.SkillCategoryHard:
		return domain.SkillCategoryHard
	case domain.SkillCategorySoft:
		return domain.SkillCategorySoft
	case domain.SkillCategoryTool:
		return domain.SkillCategoryTool
	case domain.SkillCategoryTechnique:
		return domain.SkillCategoryTechnique
	case domain.SkillCategoryDomain:
		return domain.SkillCategoryDomain
	default:
		return domain.SkillCategoryOther
	}
}

// coerceImportance is nil for resume skills (a resume asserts presence,
// never weight); job-description skills default to unspecified.
func coerceImportance(s string, source domain.SkillSource) *domain.SkillImportance {
	if source == domain.SourceResume {
		return nil
	}
	imp := domain.SkillImportance(strings.ToLower(strings.TrimSpace(s)))
	switch imp {
	case domain.ImportanceMustHave, domain.ImportanceNiceToHave, domain.ImportanceUnspecified:
	default:
		imp = domain.ImportanceUnspecified
	}
	return &imp
}
