package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/jonathan/form-filler/internal/facts"
	"github.com/jonathan/form-filler/internal/matching"
	"github.com/jonathan/form-filler/internal/types"
)

// Session owns the fields, facts and records of one review session. Nothing
// in it is shared with other sessions. Callers serialize access.
type Session struct {
	matcher *matching.Matcher
	fields  []types.Field
	facts   *facts.Store
	records *Set
	log     zerolog.Logger
}

// NewSession creates an empty session. A nil matcher means matching.Default().
func NewSession(m *matching.Matcher, log zerolog.Logger) *Session {
	if m == nil {
		m = matching.Default()
	}
	return &Session{
		matcher: m,
		facts:   facts.New(),
		records: NewSet(nil),
		log:     log,
	}
}

// ReplaceFields installs a newly extracted form. Records are replaced
// wholesale and seeded from the facts already known.
func (s *Session) ReplaceFields(fields []types.Field) {
	s.fields = append([]types.Field(nil), fields...)
	s.records = NewSet(s.fields)
	changed := s.records.Reseed(s.fields, s.facts, s.matcher)
	s.log.Debug().
		Int("fields", len(s.fields)).
		Int("seeded", len(changed)).
		Msg("Replaced form fields")
}

// MergeFacts records facts extractions and refreshes every untouched record.
func (s *Session) MergeFacts(extracted ...types.SourceFacts) {
	for _, sf := range extracted {
		s.facts.Merge(sf.Source, sf.Facts)
	}
	changed := s.records.Reseed(s.fields, s.facts, s.matcher)
	s.log.Debug().
		Int("sources", len(extracted)).
		Int("facts", s.facts.Len()).
		Strs("changed", changed).
		Msg("Merged facts")
}

// SelectCandidate resolves a field to one of its candidates.
func (s *Session) SelectCandidate(fieldID, answer string) error {
	return s.records.SelectCandidate(fieldID, answer)
}

// EnterManual sets a free-text answer for a field.
func (s *Session) EnterManual(fieldID, text string) error {
	return s.records.EnterManual(fieldID, text)
}

// Fields returns the form fields in order.
func (s *Session) Fields() []types.Field {
	return append([]types.Field(nil), s.fields...)
}

// Facts returns the session's fact store.
func (s *Session) Facts() *facts.Store {
	return s.facts
}

// Records returns the record set.
func (s *Session) Records() *Set {
	return s.records
}

// View returns what the review surface shows for every field.
func (s *Session) View() []types.FieldView {
	views := make([]types.FieldView, 0, len(s.fields))
	for _, f := range s.fields {
		r, ok := s.records.Get(f.ID)
		if !ok {
			continue
		}
		views = append(views, types.FieldView{
			ID:             f.ID,
			Text:           f.Text,
			Type:           f.Type,
			Status:         r.Status,
			Candidates:     r.Candidates,
			SelectedAnswer: r.SelectedAnswer,
		})
	}
	return views
}
