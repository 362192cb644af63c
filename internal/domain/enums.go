package domain

import "strings"

// Scope is a document scope as understood by the document-management API.
// The API expects the canonical leading-capital form; lowercase input is
// normalized to avoid 422 responses.
type Scope string

const (
	ScopeProduction  Scope = "Production"
	ScopeDevelopment Scope = "Development"
	ScopeTesting     Scope = "Testing"
	ScopeHealthcheck Scope = "Healthcheck"
	ScopeTraining    Scope = "Training"
)

var allowedScopes = map[string]Scope{
	"production":  ScopeProduction,
	"development": ScopeDevelopment,
	"testing":     ScopeTesting,
	"healthcheck": ScopeHealthcheck,
	"training":    ScopeTraining,
}

// NormalizeScope maps any casing of a known scope to its canonical form.
// Unknown values are passed through unchanged so the API can reject them.
func NormalizeScope(s string) Scope {
	if canonical, ok := allowedScopes[strings.ToLower(s)]; ok {
		return canonical
	}
	return Scope(s)
}

// Valid reports whether the scope is one of the documented values.
func (s Scope) Valid() bool {
	_, ok := allowedScopes[strings.ToLower(string(s))]
	return ok
}
