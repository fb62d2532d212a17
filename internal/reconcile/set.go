package reconcile

import (
	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/facts"
	"github.com/jonathan/form-filler/internal/matching"
	"github.com/jonathan/form-filler/internal/types"
)

// Set holds one record per field, in field order.
type Set struct {
	order []string
	byID  map[string]*types.Record
}

// NewSet creates NO_MATCH records for fields.
func NewSet(fields []types.Field) *Set {
	s := &Set{byID: make(map[string]*types.Record, len(fields))}
	for _, f := range fields {
		if _, dup := s.byID[f.ID]; dup {
			continue
		}
		s.order = append(s.order, f.ID)
		s.byID[f.ID] = NewRecord(f.ID)
	}
	return s
}

// Len returns the number of records.
func (s *Set) Len() int {
	return len(s.order)
}

// Get returns a copy of the record for fieldID.
func (s *Set) Get(fieldID string) (types.Record, bool) {
	r, ok := s.byID[fieldID]
	if !ok {
		return types.Record{}, false
	}
	return copyRecord(r), true
}

// List returns copies of all records in field order.
func (s *Set) List() []types.Record {
	out := make([]types.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyRecord(s.byID[id]))
	}
	return out
}

// Map returns copies of all records keyed by field ID.
func (s *Set) Map() map[string]types.Record {
	out := make(map[string]types.Record, len(s.order))
	for _, id := range s.order {
		out[id] = copyRecord(s.byID[id])
	}
	return out
}

// Reseed re-runs the matcher for every field and seeds untouched records.
// It returns the IDs of records whose state changed.
func (s *Set) Reseed(fields []types.Field, store *facts.Store, m *matching.Matcher) []string {
	var changed []string
	for _, f := range fields {
		r, ok := s.byID[f.ID]
		if !ok {
			continue
		}
		if SeedFromMatch(r, m.Match(f, store)) {
			changed = append(changed, f.ID)
		}
	}
	return changed
}

// SelectCandidate resolves fieldID to one of its candidates.
func (s *Set) SelectCandidate(fieldID, answer string) error {
	r, ok := s.byID[fieldID]
	if !ok {
		return errors.NewNotFoundError("field", fieldID)
	}
	return SelectCandidate(r, answer)
}

// EnterManual sets a free-text answer for fieldID.
func (s *Set) EnterManual(fieldID, text string) error {
	r, ok := s.byID[fieldID]
	if !ok {
		return errors.NewNotFoundError("field", fieldID)
	}
	EnterManual(r, text)
	return nil
}

// Unresolved returns the IDs of records not RESOLVED, in field order.
func (s *Set) Unresolved() []string {
	var ids []string
	for _, id := range s.order {
		if s.byID[id].Status != types.StatusResolved {
			ids = append(ids, id)
		}
	}
	return ids
}

func copyRecord(r *types.Record) types.Record {
	out := *r
	out.Candidates = append(types.CandidateSet{}, r.Candidates...)
	return out
}
