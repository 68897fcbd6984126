package skills

import (
	"fmt"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// repairPrompt is sent once when the model's first response fails to parse.
const repairPrompt = `Your previous response was not valid JSON and could not be parsed. ` +
	`Respond again with ONLY the JSON object described in the instructions. ` +
	`No prose, no markdown fences, no explanations.`

func extractionSystemPrompt(source domain.SkillSource) string {
	importanceRule := `"importance" must be one of "must_have", "nice_to_have" or "unspecified", based on how the document phrases the requirement.`
	if source == domain.SourceResume {
		importanceRule = `Omit "importance"; a resume asserts that a skill is present, never how much it is required.`
	}
	return fmt.Sprintf(`You are a skill extraction engine for a resume screening system.
Extract the skills stated or clearly evidenced in the %s below.

Respond with ONLY a JSON object of this exact shape:
{
  "document_type": "%s",
  "skills": [
    {
      "name": "<skill as written>",
      "category": "hard|soft|tool|technique|domain|other",
      "importance": "must_have|nice_to_have|unspecified",
      "evidence_snippets": ["<short quote from the document>"]
    }
  ]
}

Rules:
1. Extract at most %d skills, most significant first.
2. "category" must be one of the six listed values.
3. %s
4. Each evidence snippet is a short verbatim quote (under %d characters).
5. Do not invent skills that are not supported by the text.
6. Output JSON only. No markdown, no commentary.`,
		docLabel(source), string(source), maxSkills, importanceRule, maxEvidenceChars)
}

func docLabel(source domain.SkillSource) string {
	if source == domain.SourceResume {
		return "resume"
	}
	return "job description"
}
