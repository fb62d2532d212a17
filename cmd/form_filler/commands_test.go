package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-filler/internal/config"
	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/extraction"
	"github.com/jonathan/form-filler/internal/schemas"
	"github.com/jonathan/form-filler/internal/types"
)

func withFakeService(t *testing.T, svc extraction.Service) {
	t.Helper()
	orig := newService
	newService = func(context.Context, *config.Config, zerolog.Logger) (extraction.Service, func(), error) {
		return svc, func() {}, nil
	}
	t.Cleanup(func() { newService = orig })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		logLevel, logFormat, configPath = "", "", ""
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	withFakeService(t, fakeExtraction(nil))
	paths := writeFiles(t, "form.txt")

	out, err := execute(t, "analyze", paths["form.txt"], "--json", "--log-level", "error")
	require.NoError(t, err)

	var fields []types.Field
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	assert.Equal(t, cliFields, fields)
}

func TestExtractFactsCommand_JSON(t *testing.T) {
	withFakeService(t, fakeExtraction(twoSources))
	paths := writeFiles(t, "license.txt", "lease.txt")

	out, err := execute(t, "extract-facts", paths["license.txt"], paths["lease.txt"], "--json", "--log-level", "error")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "John A. Smith", got["fullName"])
	assert.Equal(t, "1990-01-01", got["dateOfBirth"])
	assert.Equal(t, "john@example.com", got["email"])
}

func TestCommand_InvalidLogLevel(t *testing.T) {
	withFakeService(t, fakeExtraction(nil))
	paths := writeFiles(t, "form.txt")

	_, err := execute(t, "analyze", paths["form.txt"], "--log-level", "loud")
	var ce *errors.ConfigError
	assert.True(t, errors.As(err, &ce))
}

func TestNewService_RequiresAPIKey(t *testing.T) {
	_, _, err := newService(context.Background(), &config.Config{}, zerolog.Nop())
	assert.True(t, errors.Is(err, errors.ErrAPIKeyRequired))
}

func TestWriteValidatedJSON_RejectsInvalid(t *testing.T) {
	var buf bytes.Buffer
	err := writeValidatedJSON(&buf, schemas.FormFields, []types.Field{{ID: "1", Text: ""}})
	assert.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestPrintFields_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printFields(&buf, cliFields, false))
	assert.Contains(t, buf.String(), "FORM FIELDS")
}

func TestMaxBodySize(t *testing.T) {
	assert.Equal(t, int64(5*100+1<<20), maxBodySize(100, 5))
}
