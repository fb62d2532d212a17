// Package wizard gates a review session through its steps: upload the form,
// upload reference documents, review, then assemble.
package wizard

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/extraction"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/jonathan/form-filler/internal/upload"
)

// StepKind says what a step does on advance.
type StepKind string

// Step kinds
const (
	KindFormUpload      StepKind = "form_upload"
	KindReferenceUpload StepKind = "reference_upload"
	KindReview          StepKind = "review"
)

// Step is one stop of the wizard.
type Step struct {
	Name          string   `json:"name" mapstructure:"name" validate:"required"`
	Kind          StepKind `json:"kind" mapstructure:"kind" validate:"oneof=form_upload reference_upload review"`
	MaxFiles      int      `json:"max_files,omitempty" mapstructure:"max_files" validate:"gte=0"`
	AcceptedTypes []string `json:"accepted_types,omitempty" mapstructure:"accepted_types"`
	MaxFileSize   int64    `json:"max_file_size,omitempty" mapstructure:"max_file_size" validate:"gte=0"`
}

// IsUpload reports whether the step takes files.
func (s Step) IsUpload() bool {
	return s.Kind == KindFormUpload || s.Kind == KindReferenceUpload
}

// Mode is the extraction mode run when an upload step advances.
func (s Step) Mode() extraction.Mode {
	if s.Kind == KindFormUpload {
		return extraction.ModeSchema
	}
	return extraction.ModeFacts
}

// Limits returns the selection limits of an upload step.
func (s Step) Limits() upload.Limits {
	return upload.Limits{MaxFiles: s.MaxFiles, AcceptedTypes: s.AcceptedTypes, MaxFileSize: s.MaxFileSize}
}

// DefaultSteps is the standard sequence: one form, up to five references,
// then review.
func DefaultSteps() []Step {
	return []Step{
		{Name: "Upload Form", Kind: KindFormUpload, MaxFiles: 1, AcceptedTypes: upload.DefaultAcceptedTypes, MaxFileSize: upload.DefaultMaxFileSize},
		{Name: "Upload References", Kind: KindReferenceUpload, MaxFiles: 5, AcceptedTypes: upload.DefaultAcceptedTypes, MaxFileSize: upload.DefaultMaxFileSize},
		{Name: "Review", Kind: KindReview},
	}
}

var validate = validator.New()

// ValidateSteps checks a step configuration: at least one step, upload
// steps take at least one file, and review, if present, comes last.
func ValidateSteps(steps []Step) error {
	if len(steps) == 0 {
		return errors.NewValidationError("steps", "at least one step is required")
	}
	for i, s := range steps {
		if err := validate.Struct(s); err != nil {
			return errors.NewValidationError(fmt.Sprintf("steps[%d]", i), err.Error())
		}
		if s.IsUpload() && s.MaxFiles < 1 {
			return errors.NewValidationError(fmt.Sprintf("steps[%d]", i), "upload steps must allow at least one file")
		}
		if s.Kind == KindReview && i != len(steps)-1 {
			return errors.NewValidationError(fmt.Sprintf("steps[%d]", i), "review must be the last step")
		}
	}
	return nil
}

// CheckSelection validates docs against the step's limits.
func (s Step) CheckSelection(docs []types.Document) error {
	return upload.ValidateSelection(docs, s.Limits())
}
