package httpserver

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one failed field check.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of a field validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

var jobKeyRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateJobKey checks a recruiter-chosen job key: required, at most 100
// characters, alphanumeric plus hyphen and underscore.
func ValidateJobKey(jobKey string) ValidationResult {
	switch {
	case jobKey == "":
		return invalid("job_key", "REQUIRED", "job key is required")
	case len(jobKey) > 100:
		return invalid("job_key", "TOO_LONG", "job key is too long (max 100 characters)")
	case !jobKeyRe.MatchString(jobKey):
		return invalid("job_key", "INVALID_FORMAT", "job key contains invalid characters")
	}
	return ValidationResult{Valid: true}
}

func invalid(field, code, message string) ValidationResult {
	return ValidationResult{Valid: false, Errors: []ValidationError{{Field: field, Code: code, Message: message}}}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// validationDetails flattens validator errors into a field->tag map for the
// error envelope.
func validationDetails(err error) map[string]string {
	details := map[string]string{}
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			details[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return details
}
