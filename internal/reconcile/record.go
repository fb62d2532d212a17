// Package reconcile implements the per-field resolution state machine and the
// session-scoped context that owns fields, facts and records.
package reconcile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/types"
)

// NewRecord creates the initial record for a field: NO_MATCH with no candidates.
func NewRecord(fieldID string) *types.Record {
	return &types.Record{
		FieldID:    fieldID,
		Status:     types.StatusNoMatch,
		Candidates: types.CandidateSet{},
	}
}

// SeedFromMatch applies matcher output to a record and reports whether the
// record changed. Candidates are always refreshed. A UserTouched record keeps
// its non-empty selection; an empty one settles from the new candidates.
func SeedFromMatch(r *types.Record, cs types.CandidateSet) bool {
	before := *r
	if r.UserTouched && r.SelectedAnswer != "" {
		r.Candidates = append(types.CandidateSet{}, cs...)
		r.Status = types.StatusResolved
	} else {
		applyCandidates(r, cs)
	}
	return before.Status != r.Status ||
		before.SelectedAnswer != r.SelectedAnswer ||
		!slices.Equal(before.Candidates, r.Candidates)
}

// applyCandidates sets candidates and derives status and selection from their count.
func applyCandidates(r *types.Record, cs types.CandidateSet) {
	r.Candidates = append(types.CandidateSet{}, cs...)
	settleFromCandidates(r)
}

// settleFromCandidates derives status from the candidate count:
// none is NO_MATCH, one is auto-accepted, several is CONFLICT.
func settleFromCandidates(r *types.Record) {
	switch len(r.Candidates) {
	case 0:
		r.Status = types.StatusNoMatch
		r.SelectedAnswer = ""
	case 1:
		r.Status = types.StatusResolved
		r.SelectedAnswer = r.Candidates[0]
	default:
		r.Status = types.StatusConflict
		r.SelectedAnswer = ""
	}
}

// SelectCandidate resolves a record to one of its candidates.
func SelectCandidate(r *types.Record, answer string) error {
	if !slices.Contains(r.Candidates, answer) {
		return errors.NewValidationError(r.FieldID, fmt.Sprintf("%q is not a candidate answer", answer))
	}
	r.SelectedAnswer = answer
	r.Status = types.StatusResolved
	r.UserTouched = true
	return nil
}

// EnterManual sets a free-text answer, overriding any status. Empty text
// clears the manual answer and falls back to what the candidates imply.
func EnterManual(r *types.Record, text string) {
	r.UserTouched = true
	text = strings.TrimSpace(text)
	if text == "" {
		settleFromCandidates(r)
		return
	}
	r.Status = types.StatusResolved
	r.SelectedAnswer = text
}

// CheckInvariants verifies that status, candidates and selection agree.
func CheckInvariants(r *types.Record) error {
	switch r.Status {
	case types.StatusResolved:
		if r.SelectedAnswer == "" {
			return fmt.Errorf("field %s: resolved without an answer", r.FieldID)
		}
	case types.StatusConflict:
		if len(r.Candidates) < 2 {
			return fmt.Errorf("field %s: conflict with %d candidates", r.FieldID, len(r.Candidates))
		}
		if r.SelectedAnswer != "" {
			return fmt.Errorf("field %s: conflict with a selected answer", r.FieldID)
		}
	case types.StatusNoMatch:
		if len(r.Candidates) != 0 {
			return fmt.Errorf("field %s: no match with %d candidates", r.FieldID, len(r.Candidates))
		}
		if r.SelectedAnswer != "" {
			return fmt.Errorf("field %s: no match with a selected answer", r.FieldID)
		}
	default:
		return fmt.Errorf("field %s: unknown status %q", r.FieldID, r.Status)
	}
	return nil
}
