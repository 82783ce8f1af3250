package modeler

import (
	_ "embed"
	"fmt"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
	"gopkg.in/yaml.v3"
)

//go:embed scope_rules.yaml
var scopeRulesYAML []byte

// scopeRules is the fixed rule set the validator classifies against.
type scopeRules struct {
	DomainTerms     []string `yaml:"domain_terms"`
	BlockedPatterns []string `yaml:"blocked_patterns"`
}

// ScopeDecision is the outcome of validating one request.
type ScopeDecision struct {
	Allowed   bool   `json:"allowed"`
	Rationale string `json:"rationale"`
}

// ScopeValidator classifies free-form requests as in or out of the
// platform's domain before they reach the pipeline. It is a pure
// function of its input and the embedded rule set; it reads and
// mutates no session state.
type ScopeValidator struct {
	rules scopeRules
}

// NewScopeValidator loads the embedded rule set.
func NewScopeValidator() (*ScopeValidator, error) {
	var rules scopeRules
	if err := yaml.Unmarshal(scopeRulesYAML, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse scope rules: %w", err)
	}
	return &ScopeValidator{rules: rules}, nil
}

// Validate classifies a request. Injection payloads are blocked
// outright; otherwise the request must match at least one domain term
// and no blocked pattern.
func (v *ScopeValidator) Validate(request string) ScopeDecision {
	trimmed := strings.TrimSpace(request)
	if trimmed == "" {
		return ScopeDecision{
			Allowed:   false,
			Rationale: "empty request",
		}
	}

	if isSQLi, fingerprint := libinjection.IsSQLi(trimmed); isSQLi {
		return ScopeDecision{
			Allowed:   false,
			Rationale: fmt.Sprintf("injection pattern detected (fingerprint %s)", fingerprint),
		}
	}
	if libinjection.IsXSS(trimmed) {
		return ScopeDecision{
			Allowed:   false,
			Rationale: "cross-site scripting pattern detected",
		}
	}

	lower := strings.ToLower(trimmed)

	for _, pattern := range v.rules.BlockedPatterns {
		if strings.Contains(lower, pattern) {
			return ScopeDecision{
				Allowed:   false,
				Rationale: fmt.Sprintf("matched blocked pattern %q", pattern),
			}
		}
	}

	var matched []string
	for _, term := range v.rules.DomainTerms {
		if containsTerm(lower, term) {
			matched = append(matched, term)
		}
	}
	if len(matched) == 0 {
		return ScopeDecision{
			Allowed:   false,
			Rationale: "no platform domain vocabulary matched",
		}
	}

	return ScopeDecision{
		Allowed:   true,
		Rationale: fmt.Sprintf("matched domain terms: %s", strings.Join(matched, ", ")),
	}
}

// containsTerm matches a term on word boundaries so that short terms
// like "app" do not fire inside unrelated words ("apple", "happen").
func containsTerm(text, term string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
