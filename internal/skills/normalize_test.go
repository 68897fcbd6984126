package skills_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banglahouse/resume-screener-backend/internal/skills"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"Node.js", "node.js"},
		{"NODE.JS ", "node.js"},
		{"C++", "c++"},
		{"C#", "c#"},
		{"CI/CD", "ci/cd"},
		{"Machine   Learning", "machine learning"},
		{"Résumé Writing", "resume writing"},
		{"SQL, advanced", "sql advanced"},
		{"  spaced  out  ", "spaced out"},
		{"!!!", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, skills.NormalizeName(c.in), "input %q", c.in)
	}
}

func TestNormalizeName_SameKeyForVariants(t *testing.T) {
	t.Parallel()
	assert.Equal(t, skills.NormalizeName("Node.js"), skills.NormalizeName("NODE.JS "))
	assert.Equal(t, skills.NormalizeName("PostgreSQL"), skills.NormalizeName("postgresql"))
}
