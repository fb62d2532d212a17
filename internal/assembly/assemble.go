// Package assembly combines resolved records into the ordered answer list
// handed to document generation.
package assembly

import (
	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/types"
)

// Assemble pairs every field with its selected answer, preserving field order.
// If any field lacks a RESOLVED record nothing is assembled and a
// MissingAnswersError names the unresolved fields.
func Assemble(fields []types.Field, records map[string]types.Record) ([]types.Answer, error) {
	var missing []string
	for _, f := range fields {
		r, ok := records[f.ID]
		if !ok || r.Status != types.StatusResolved || r.SelectedAnswer == "" {
			missing = append(missing, f.ID)
		}
	}
	if len(missing) > 0 {
		return nil, &errors.MissingAnswersError{FieldIDs: missing}
	}

	answers := make([]types.Answer, 0, len(fields))
	for _, f := range fields {
		answers = append(answers, types.Answer{Field: f, Answer: records[f.ID].SelectedAnswer})
	}
	return answers, nil
}
