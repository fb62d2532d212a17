package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n[{\"id\": \"1\", \"text\": \"Full name\"}]\n```",
			expected: `[{"id": "1", "text": "Full name"}]`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"fullName\": \"John Smith\"}\n```",
			expected: `{"fullName": "John Smith"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"email": "john@example.com"}`,
			expected: `{"email": "john@example.com"}`,
		},
		{
			name:     "preamble before object",
			input:    "Here are the facts I found:\n{\"phone\": \"555-0100\"}",
			expected: `{"phone": "555-0100"}`,
		},
		{
			name:     "preamble before array",
			input:    "The form has these fields:\n[{\"id\": \"1\", \"text\": \"Date of birth\"}]",
			expected: `[{"id": "1", "text": "Date of birth"}]`,
		},
		{
			name:     "trailing commentary",
			input:    "{\"address\": \"123 Main St\"}\n\nLet me know if you need anything else!",
			expected: `{"address": "123 Main St"}`,
		},
		{
			name:     "escaped quotes",
			input:    "Result: {\"rawText\": \"He said \\\"hi\\\"\"}",
			expected: `{"rawText": "He said \"hi\""}`,
		},
		{
			name:     "no JSON at all",
			input:    "I could not read the document.",
			expected: "I could not read the document.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple object", `{"key": "value"}`, `{"key": "value"}`},
		{"nested objects", `{"outer": {"inner": "value"}}`, `{"outer": {"inner": "value"}}`},
		{"trailing text", `{"key": "value"} and more`, `{"key": "value"}`},
		{"braces inside strings", `{"template": "Hello {name}!"}`, `{"template": "Hello {name}!"}`},
		{"unterminated", `{"key": "value"`, ""},
		{"empty input", "", ""},
		{"not starting with brace", "not json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONObject(tt.input))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple array", `["a", "b"]`, `["a", "b"]`},
		{"array of objects", `[{"id": "1"}, {"id": "2"}]`, `[{"id": "1"}, {"id": "2"}]`},
		{"brackets inside strings", `["[x]"] tail`, `["[x]"]`},
		{"empty input", "", ""},
		{"not starting with bracket", "nope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONArray(tt.input))
		})
	}
}
