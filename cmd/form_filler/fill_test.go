package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/extraction"
	"github.com/jonathan/form-filler/internal/matching"
	"github.com/jonathan/form-filler/internal/reconcile"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/jonathan/form-filler/internal/wizard"
)

var cliFields = []types.Field{
	{ID: "1", Text: "What is your full name?"},
	{ID: "2", Text: "Date of birth?"},
	{ID: "3", Text: "Email", Type: types.FieldTypeEmail},
}

// fakeExtraction returns cliFields for forms and, for each reference, the
// facts keyed by its base name.
func fakeExtraction(byDoc map[string]map[string]string) extraction.Service {
	return extraction.ServiceFunc(func(_ context.Context, mode extraction.Mode, docs []types.Document) extraction.Result {
		if mode == extraction.ModeSchema {
			return extraction.Success(extraction.Payload{Fields: cliFields})
		}
		var out []types.SourceFacts
		for _, d := range docs {
			out = append(out, types.SourceFacts{Source: d.Name, Facts: byDoc[d.Name]})
		}
		return extraction.Success(extraction.Payload{Facts: out})
	})
}

func writeFiles(t *testing.T, names ...string) map[string]string {
	t.Helper()
	dir := t.TempDir()
	paths := make(map[string]string, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("contents of "+name), 0o644))
		paths[name] = p
	}
	return paths
}

func newTestController(t *testing.T, svc extraction.Service) *wizard.Controller {
	t.Helper()
	c, err := wizard.New(svc, reconcile.NewSession(matching.Default(), zerolog.Nop()), nil, zerolog.Nop())
	require.NoError(t, err)
	return c
}

var twoSources = map[string]map[string]string{
	"license.txt": {"fullName": "John Smith", "dateOfBirth": "1990-01-01"},
	"lease.txt":   {"fullName": "John A. Smith", "email": "john@example.com"},
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"1=John", " 2 =a=b", "3="})
	require.NoError(t, err)
	assert.Equal(t, []assignment{{"1", "John"}, {"2", "a=b"}, {"3", ""}}, got)

	for _, bad := range []string{"noequals", "=value"} {
		_, err := parseAssignments([]string{bad})
		assert.True(t, errors.Is(err, errors.ErrInvalidInput), bad)
	}
}

func TestFill_WithSelections(t *testing.T) {
	paths := writeFiles(t, "form.txt", "license.txt", "lease.txt")
	c := newTestController(t, fakeExtraction(twoSources))

	var out bytes.Buffer
	answers, err := fill(context.Background(), c, fillOptions{
		Form:    paths["form.txt"],
		Refs:    []string{paths["license.txt"], paths["lease.txt"]},
		Selects: []string{"1=John A. Smith"},
	}, strings.NewReader(""), &out)
	require.NoError(t, err)

	require.Len(t, answers, 3)
	assert.Equal(t, "John A. Smith", answers[0].Answer)
	assert.Equal(t, "1990-01-01", answers[1].Answer)
	assert.Equal(t, "john@example.com", answers[2].Answer)
	assert.Contains(t, out.String(), "COMPLETED FORM")
	assert.True(t, c.State().Complete)
}

func TestFill_MissingAnswersPrintsReview(t *testing.T) {
	paths := writeFiles(t, "form.txt", "license.txt", "lease.txt")
	c := newTestController(t, fakeExtraction(twoSources))

	var out bytes.Buffer
	_, err := fill(context.Background(), c, fillOptions{
		Form: paths["form.txt"],
		Refs: []string{paths["license.txt"], paths["lease.txt"]},
	}, strings.NewReader(""), &out)
	require.Error(t, err)

	var missing *errors.MissingAnswersError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"1"}, missing.FieldIDs)
	assert.Contains(t, out.String(), "REVIEW")
	assert.Contains(t, out.String(), "1) John Smith")
}

func TestFill_Interactive(t *testing.T) {
	paths := writeFiles(t, "form.txt", "license.txt")
	c := newTestController(t, fakeExtraction(map[string]map[string]string{
		"license.txt": {"fullName": "John Smith"},
	}))

	// Date of birth then email; full name is already resolved
	in := strings.NewReader("1990-01-01\njane@example.com\n")
	var out bytes.Buffer
	answers, err := fill(context.Background(), c, fillOptions{
		Form:        paths["form.txt"],
		Refs:        []string{paths["license.txt"]},
		Interactive: true,
		JSON:        true,
	}, in, &out)
	require.NoError(t, err)

	require.Len(t, answers, 3)
	assert.Equal(t, "John Smith", answers[0].Answer)
	assert.Equal(t, "1990-01-01", answers[1].Answer)
	assert.Equal(t, "jane@example.com", answers[2].Answer)
	assert.Contains(t, out.String(), `"answer": "jane@example.com"`)
}

func TestFill_InteractivePicksCandidateByNumber(t *testing.T) {
	paths := writeFiles(t, "form.txt", "license.txt", "lease.txt")
	c := newTestController(t, fakeExtraction(twoSources))

	var out bytes.Buffer
	answers, err := fill(context.Background(), c, fillOptions{
		Form:        paths["form.txt"],
		Refs:        []string{paths["license.txt"], paths["lease.txt"]},
		Interactive: true,
	}, strings.NewReader("2\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "John A. Smith", answers[0].Answer)
}

func TestFill_ManualOverridesResolved(t *testing.T) {
	paths := writeFiles(t, "form.txt", "license.txt", "lease.txt")
	c := newTestController(t, fakeExtraction(twoSources))

	answers, err := fill(context.Background(), c, fillOptions{
		Form:    paths["form.txt"],
		Refs:    []string{paths["license.txt"], paths["lease.txt"]},
		Selects: []string{"1=John Smith"},
		Answers: []string{"3=other@example.com"},
	}, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "other@example.com", answers[2].Answer)
}

func TestFill_UnknownField(t *testing.T) {
	paths := writeFiles(t, "form.txt", "license.txt")
	c := newTestController(t, fakeExtraction(twoSources))

	_, err := fill(context.Background(), c, fillOptions{
		Form:    paths["form.txt"],
		Refs:    []string{paths["license.txt"]},
		Answers: []string{"42=x"},
	}, strings.NewReader(""), &bytes.Buffer{})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestFill_MissingFile(t *testing.T) {
	c := newTestController(t, fakeExtraction(nil))

	_, err := fill(context.Background(), c, fillOptions{
		Form: filepath.Join(t.TempDir(), "missing.pdf"),
	}, strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
	assert.Equal(t, 0, c.State().CurrentStep)
}
