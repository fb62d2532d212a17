package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractionSet(t *testing.T) *Set {
	t.Helper()
	set, err := Extraction()
	require.NoError(t, err)
	return set
}

func TestExtraction_AnalyzeForm(t *testing.T) {
	prompt, err := extractionSet(t).Get(KeyAnalyzeForm)
	require.NoError(t, err)
	assert.Contains(t, prompt, "JSON array")
}

func TestExtraction_ParsedOnce(t *testing.T) {
	a, err := Extraction()
	require.NoError(t, err)
	b, err := Extraction()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load("nonexistent.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := extractionSet(t).Get("nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGet_RejectsTemplateWithPlaceholders(t *testing.T) {
	_, err := extractionSet(t).Get(KeyExtractFacts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Keys, Source")
}

func TestPlaceholders(t *testing.T) {
	names, err := extractionSet(t).Placeholders(KeyExtractFacts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keys", "Source"}, names)

	names, err = extractionSet(t).Placeholders(KeyAnalyzeForm)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRender_ExtractFacts(t *testing.T) {
	prompt, err := extractionSet(t).Render(KeyExtractFacts, map[string]string{
		"Keys":   "fullName, email",
		"Source": "license.pdf",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "fullName, email")
	assert.Contains(t, prompt, "license.pdf")
	assert.NotContains(t, prompt, "{{")
}

func TestRender_MissingValue(t *testing.T) {
	_, err := extractionSet(t).Render(KeyExtractFacts, map[string]string{"Keys": "fullName"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no value for Source")
}

func TestRender_ValueIsNotReexpanded(t *testing.T) {
	prompt, err := extractionSet(t).Render(KeyExtractFacts, map[string]string{
		"Keys":   "fullName",
		"Source": "{{.Keys}}.pdf",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Document name: {{.Keys}}.pdf")
}

func TestPlaceholderNames(t *testing.T) {
	tests := []struct {
		tmpl string
		want []string
	}{
		{"no placeholders", nil},
		{"{{.B}} and {{.A}} and {{.B}}", []string{"A", "B"}},
		{"{{ .Spaced }} is not a placeholder", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, placeholders(tt.tmpl), tt.tmpl)
	}
}
