package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/extraction"
)

func TestDefaultSteps(t *testing.T) {
	steps := DefaultSteps()
	assert.NoError(t, ValidateSteps(steps))

	assert.Equal(t, KindFormUpload, steps[0].Kind)
	assert.Equal(t, 1, steps[0].MaxFiles)
	assert.Equal(t, extraction.ModeSchema, steps[0].Mode())
	assert.Equal(t, 5, steps[1].MaxFiles)
	assert.Equal(t, extraction.ModeFacts, steps[1].Mode())
	assert.False(t, steps[2].IsUpload())
}

func TestValidateSteps(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		ok    bool
	}{
		{"empty", nil, false},
		{"references before form", []Step{
			{Name: "Refs", Kind: KindReferenceUpload, MaxFiles: 3},
			{Name: "Form", Kind: KindFormUpload, MaxFiles: 1},
			{Name: "Review", Kind: KindReview},
		}, true},
		{"unknown kind", []Step{{Name: "Scan", Kind: "ocr", MaxFiles: 1}}, false},
		{"missing name", []Step{{Kind: KindReview}}, false},
		{"upload without files", []Step{{Name: "Form", Kind: KindFormUpload}}, false},
		{"review not last", []Step{{Name: "Review", Kind: KindReview}, {Name: "Form", Kind: KindFormUpload, MaxFiles: 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSteps(tt.steps)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))
		})
	}
}
