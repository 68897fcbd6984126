package skills

import (
	"regexp"
	"strings"
)

// skillDictionary is the static keyword list used by the degraded
// extraction mode when the LLM path is disabled or unavailable.
var skillDictionary = []string{
	// Programming languages
	"javascript", "typescript", "python", "java", "c#", "c++", "c", "go", "rust", "php", "ruby", "swift", "kotlin", "scala",
	// Web technologies
	"react", "vue", "angular", "node.js", "nodejs", "express", "next.js", "nuxt.js", "svelte", "html", "css", "sass", "less",
	// Databases
	"postgresql", "postgres", "mysql", "mongodb", "redis", "elasticsearch", "sqlite", "dynamodb", "cassandra", "neo4j",
	// Cloud & DevOps
	"aws", "azure", "gcp", "google cloud", "docker", "kubernetes", "terraform", "jenkins", "gitlab", "github actions", "circleci",
	// Frameworks & libraries
	"spring", "django", "flask", "laravel", "rails", "asp.net", ".net", "jquery", "bootstrap", "tailwind",
	// Tools & technologies
	"git", "linux", "nginx", "apache", "microservices", "api", "rest", "graphql", "websockets", "oauth", "jwt",
	// Data & analytics
	"machine learning", "ml", "ai", "data science", "pandas", "numpy", "tensorflow", "pytorch", "spark", "hadoop",
	// Testing
	"jest", "cypress", "selenium", "unit testing", "integration testing", "tdd", "bdd",
	// Project management
	"agile", "scrum", "kanban", "jira", "confluence", "project management",
}

var dictPatterns = buildDictPatterns()

func buildDictPatterns() []*regexp.Regexp {
	ps := make([]*regexp.Regexp, len(skillDictionary))
	for i, s := range skillDictionary {
		ps[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(s) + `\b`)
	}
	return ps
}

// experiencePatterns recognize stated years of experience; the capture
// group is the year count.
var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s+(?:of\s+)?experience`),
	regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s+(?:in|with)`),
	regexp.MustCompile(`(?i)experience\s+(?:of\s+)?(\d+)\+?\s*years?`),
}

// ExtractKeywords scans text against the static dictionary using word
// boundaries and appends a seniority label derived from stated years of
// experience. Output order is deterministic: dictionary order first, then
// seniority labels.
func ExtractKeywords(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for i, p := range dictPatterns {
		if p.MatchString(lower) {
			found = append(found, skillDictionary[i])
		}
	}
	seen := map[string]struct{}{}
	for _, p := range experiencePatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			years := atoiSafe(m[1])
			label := "junior level"
			switch {
			case years >= 5:
				label = "senior level"
			case years >= 2:
				label = "mid level"
			}
			if _, dup := seen[label]; !dup {
				seen[label] = struct{}{}
				found = append(found, label)
			}
		}
	}
	return found
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}
