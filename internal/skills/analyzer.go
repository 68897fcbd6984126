package skills

import (
	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// Analyzer produces a skill match summary for a JD/resume text pair.
type Analyzer interface {
	Analyze(ctx domain.Context, jdText, resumeText string) (domain.SkillMatchSummary, error)
}

// LLMAnalyzer extracts structured skills from both documents via the model
// and scores them with importance weighting.
type LLMAnalyzer struct {
	Extractor *Extractor
}

// NewLLMAnalyzer constructs an LLMAnalyzer over the given AI client.
func NewLLMAnalyzer(ai domain.AIClient) *LLMAnalyzer {
	return &LLMAnalyzer{Extractor: NewExtractor(ai)}
}

// Analyze extracts skills from the JD and the resume, then scores the pair.
func (a *LLMAnalyzer) Analyze(ctx domain.Context, jdText, resumeText string) (domain.SkillMatchSummary, error) {
	jdSkills, err := a.Extractor.Extract(ctx, domain.SourceJobDescription, jdText)
	if err != nil {
		return domain.SkillMatchSummary{}, err
	}
	resumeSkills, err := a.Extractor.Extract(ctx, domain.SourceResume, resumeText)
	if err != nil {
		return domain.SkillMatchSummary{}, err
	}
	return Score(jdSkills, resumeSkills), nil
}

// DictionaryAnalyzer matches against the static keyword list. It makes no
// provider calls and is fully deterministic.
type DictionaryAnalyzer struct{}

// Analyze scans both texts for known keywords and scores the overlap with
// equal weights.
func (DictionaryAnalyzer) Analyze(_ domain.Context, jdText, resumeText string) (domain.SkillMatchSummary, error) {
	return ScoreKeywords(ExtractKeywords(jdText), ExtractKeywords(resumeText)), nil
}
