package skills

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

const (
	mustHaveWeight = 2
	defaultWeight  = 1

	extraSkillsPreview      = 8
	highlightStrengthsLimit = 3
)

// Score computes the weighted match between a job description's and a
// resume's extracted skill sets. must_have job skills weigh 2, everything
// else 1; the score is round(100 * matchedWeight / totalWeight), or 0 for a
// job description with no extracted skills. Strengths and gaps keep the
// job-skill encounter order; extra skills keep the resume encounter order.
// Duplicate normalized names keep the first occurrence on both sides.
func Score(jdSkills, resumeSkills []domain.ExtractedSkill) domain.SkillMatchSummary {
	resumeByNorm := make(map[string]struct{}, len(resumeSkills))
	resumeSeen := make([]domain.ExtractedSkill, 0, len(resumeSkills))
	for _, s := range resumeSkills {
		if _, dup := resumeByNorm[s.NormalizedName]; dup {
			continue
		}
		resumeByNorm[s.NormalizedName] = struct{}{}
		resumeSeen = append(resumeSeen, s)
	}

	jdByNorm := make(map[string]struct{}, len(jdSkills))
	jdSeen := make([]domain.ExtractedSkill, 0, len(jdSkills))
	var strengths, gaps []string
	totalWeight, matchedWeight := 0, 0
	for _, s := range jdSkills {
		if _, dup := jdByNorm[s.NormalizedName]; dup {
			continue
		}
		jdByNorm[s.NormalizedName] = struct{}{}
		jdSeen = append(jdSeen, s)

		w := defaultWeight
		if s.Importance != nil && *s.Importance == domain.ImportanceMustHave {
			w = mustHaveWeight
		}
		totalWeight += w
		if _, ok := resumeByNorm[s.NormalizedName]; ok {
			matchedWeight += w
			strengths = append(strengths, s.Name)
		} else {
			gaps = append(gaps, s.Name)
		}
	}

	var extras []string
	for _, s := range resumeSeen {
		if _, ok := jdByNorm[s.NormalizedName]; !ok {
			extras = append(extras, s.Name)
		}
	}

	score := 0
	if totalWeight > 0 {
		score = int(math.Round(100 * float64(matchedWeight) / float64(totalWeight)))
	}
	return domain.SkillMatchSummary{
		MatchScore:   score,
		Strengths:    strengths,
		Gaps:         gaps,
		ExtraSkills:  extras,
		JDSkills:     jdSeen,
		ResumeSkills: resumeSeen,
	}
}

// ScoreKeywords is the degraded scoring mode over plain keyword lists:
// equal weights, matched-fraction score, and single aggregated strength and
// gap strings instead of per-skill lists. It fills the same
// SkillMatchSummary shape so callers are agnostic to which mode ran.
func ScoreKeywords(jdKeywords, resumeKeywords []string) domain.SkillMatchSummary {
	jd := keywordSkills(jdKeywords, domain.SourceJobDescription)
	resume := keywordSkills(resumeKeywords, domain.SourceResume)
	s := Score(jd, resume)

	if len(s.Strengths) > 0 {
		s.Strengths = []string{strings.Join(s.Strengths, ", ")}
	}
	if len(s.Gaps) > 0 {
		s.Gaps = []string{strings.Join(s.Gaps, ", ")}
	}
	return s
}

func keywordSkills(keywords []string, source domain.SkillSource) []domain.ExtractedSkill {
	out := make([]domain.ExtractedSkill, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		normalized := NormalizeName(k)
		if normalized == "" {
			continue
		}
		out = append(out, domain.ExtractedSkill{
			Name:           k,
			NormalizedName: normalized,
			Category:       domain.SkillCategoryOther,
			Importance:     coerceImportance("", source),
			Source:         source,
		})
	}
	return out
}

// BuildInsights derives the human-readable insight lines from a summary.
// The matched count is recomputed from the two skill sets so both scoring
// modes produce an accurate "Matched X/Y" line.
func BuildInsights(s domain.SkillMatchSummary) []string {
	if len(s.JDSkills) == 0 {
		return []string{"No skills detected in job description"}
	}
	resumeByNorm := make(map[string]struct{}, len(s.ResumeSkills))
	for _, r := range s.ResumeSkills {
		resumeByNorm[r.NormalizedName] = struct{}{}
	}
	matched := 0
	for _, j := range s.JDSkills {
		if _, ok := resumeByNorm[j.NormalizedName]; ok {
			matched++
		}
	}

	insights := []string{
		fmt.Sprintf("Matched %d/%d JD skills (%d%%)", matched, len(s.JDSkills), s.MatchScore),
	}
	if len(s.Gaps) > 0 {
		insights = append(insights, "Gaps: "+strings.Join(s.Gaps, ", "))
	}
	if len(s.ExtraSkills) > 0 {
		preview := s.ExtraSkills
		if len(preview) > extraSkillsPreview {
			preview = preview[:extraSkillsPreview]
		}
		insights = append(insights, "Extra resume skills: "+strings.Join(preview, ", "))
	}
	return insights
}

// yearsRe pulls a leading integer (optionally with a plus) that precedes
// "years" or "yrs".
var yearsRe = regexp.MustCompile(`(?i)(\d+\+?)\s*(?:years?|yrs)`)

// BuildExperienceHighlight derives the one-line experience highlight from
// the resume text and up to the first three strengths. Returns nil when
// neither a years figure nor any strength is available.
func BuildExperienceHighlight(s domain.SkillMatchSummary, resumeText string) *string {
	var years string
	if m := yearsRe.FindStringSubmatch(resumeText); m != nil {
		years = m[1]
	}
	preview := s.Strengths
	if len(preview) > highlightStrengthsLimit {
		preview = preview[:highlightStrengthsLimit]
	}
	strengths := strings.Join(preview, ", ")

	var out string
	switch {
	case years != "" && strengths != "":
		out = fmt.Sprintf("%s years of experience across %s.", years, strengths)
	case years != "":
		out = fmt.Sprintf("%s years of relevant experience.", years)
	case strengths != "":
		out = fmt.Sprintf("Experience with %s.", strengths)
	default:
		return nil
	}
	return &out
}

// BuildMatchResult composes the persisted match snapshot from a summary.
func BuildMatchResult(s domain.SkillMatchSummary, resumeText string) domain.MatchResult {
	return domain.MatchResult{
		Score:               s.MatchScore,
		Strengths:           s.Strengths,
		Gaps:                s.Gaps,
		ExtraSkills:         s.ExtraSkills,
		Insights:            BuildInsights(s),
		ExperienceHighlight: BuildExperienceHighlight(s, resumeText),
	}
}
