// Package matching implements the Field Matcher: a pure function from a field
// and a fact store to the ordered candidate answers for that field.
package matching

import (
	"fmt"
	"strings"

	"github.com/jonathan/form-filler/internal/facts"
	"github.com/jonathan/form-filler/internal/types"
)

// Mode selects how facts from several reference documents become candidates.
type Mode string

const (
	// ModePerSource yields one candidate per source document, de-duplicated.
	// Two documents disagreeing produce a CONFLICT.
	ModePerSource Mode = "per_source"
	// ModeMerged yields at most one candidate: the latest value for the key.
	ModeMerged Mode = "merged"
)

// ParseMode parses a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePerSource, "":
		return ModePerSource, nil
	case ModeMerged:
		return ModeMerged, nil
	default:
		return "", fmt.Errorf("unknown match mode %q", s)
	}
}

// Matcher applies an ordered rule table. A Matcher holds no mutable state and
// may be shared between sessions.
type Matcher struct {
	rules []Rule
	mode  Mode
}

// New creates a Matcher. A nil rule table means DefaultRules.
func New(mode Mode, rules []Rule) *Matcher {
	if rules == nil {
		rules = DefaultRules
	}
	if mode == "" {
		mode = ModePerSource
	}
	return &Matcher{rules: rules, mode: mode}
}

// Default returns a per-source Matcher over DefaultRules.
func Default() *Matcher {
	return New(ModePerSource, nil)
}

// Mode returns the matcher's candidate mode.
func (m *Matcher) Mode() Mode {
	return m.mode
}

// Rules returns a copy of the rule table.
func (m *Matcher) Rules() []Rule {
	return append([]Rule(nil), m.rules...)
}

// Explain returns the rule that fires for field, if any.
func (m *Matcher) Explain(field types.Field) (Rule, bool) {
	lower := strings.ToLower(field.Text)
	if strings.TrimSpace(lower) == "" && field.Type == "" {
		return Rule{}, false
	}
	for _, rule := range m.rules {
		if rule.matchesKeyword(lower) {
			return rule, true
		}
	}
	for _, rule := range m.rules {
		if rule.matchesType(field.Type) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Match returns the candidate answers for field. It never fails: no matching
// rule, or no fact for the matched key, is an empty set.
func (m *Matcher) Match(field types.Field, store *facts.Store) types.CandidateSet {
	candidates := types.CandidateSet{}
	if store == nil || strings.TrimSpace(field.Text) == "" {
		return candidates
	}

	rule, ok := m.Explain(field)
	if !ok {
		return candidates
	}

	if m.mode == ModeMerged {
		if v, ok := store.Get(rule.Key); ok && v != "" {
			candidates = append(candidates, v)
		}
		return candidates
	}

	seen := make(map[string]bool)
	for _, sv := range store.Values(rule.Key) {
		if sv.Value == "" || seen[sv.Value] {
			continue
		}
		seen[sv.Value] = true
		candidates = append(candidates, sv.Value)
	}
	return candidates
}
