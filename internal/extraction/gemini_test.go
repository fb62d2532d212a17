package extraction

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/facts"
	"github.com/jonathan/form-filler/internal/llm"
	"github.com/jonathan/form-filler/internal/types"
)

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	respond func(ctx context.Context, prompt string, docs []llm.Attachment) (string, error)
}

func (f *fakeLLM) GenerateFromDocuments(ctx context.Context, prompt string, docs []llm.Attachment, _ llm.ModelTier) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(ctx, prompt, docs)
}

func (f *fakeLLM) GetModel(llm.ModelTier) string { return "fake-model" }

func (f *fakeLLM) Close() error { return nil }

func doc(name, content string) types.Document {
	return types.Document{Name: name, MIMEType: "text/plain; charset=utf-8", Size: int64(len(content)), Data: []byte(content)}
}

func TestGeminiService_Schema(t *testing.T) {
	client := &fakeLLM{respond: func(_ context.Context, _ string, docs []llm.Attachment) (string, error) {
		require.Len(t, docs, 1)
		return "```json\n[{\"id\":\"1\",\"text\":\"What is your full name?\"}]\n```", nil
	}}
	svc := NewGeminiService(client, GeminiConfig{}, zerolog.Nop())

	res := svc.Extract(context.Background(), ModeSchema, []types.Document{doc("form.txt", "Name: ____")})

	require.False(t, res.Failed())
	assert.Equal(t, []types.Field{{ID: "1", Text: "What is your full name?"}}, res.Payload.Fields)
	assert.Contains(t, client.prompts[0], "JSON array")
}

func TestGeminiService_FactsPerDocument(t *testing.T) {
	client := &fakeLLM{respond: func(_ context.Context, _ string, docs []llm.Attachment) (string, error) {
		if len(docs) != 1 {
			return "", fmt.Errorf("expected one document per call, got %d", len(docs))
		}
		body := string(docs[0].Data)
		return fmt.Sprintf(`{"fullName": %q}`, body), nil
	}}
	svc := NewGeminiService(client, GeminiConfig{Concurrency: 2}, zerolog.Nop())

	res := svc.Extract(context.Background(), ModeFacts, []types.Document{
		doc("license.txt", "John Smith"),
		doc("lease.txt", "John A. Smith"),
		doc("bill.txt", "J. Smith"),
	})

	require.False(t, res.Failed())
	require.Len(t, res.Payload.Facts, 3)
	assert.Equal(t, "license.txt", res.Payload.Facts[0].Source)
	assert.Equal(t, "John Smith", res.Payload.Facts[0].Facts["fullName"])
	assert.Equal(t, "lease.txt", res.Payload.Facts[1].Source)
	assert.Equal(t, "John A. Smith", res.Payload.Facts[1].Facts["fullName"])
	assert.Equal(t, "bill.txt", res.Payload.Facts[2].Source)

	for _, p := range client.prompts {
		assert.Contains(t, p, "fullName, dateOfBirth, address, phone, email")
	}
}

func TestGeminiService_DuplicateNamesStayDistinctSources(t *testing.T) {
	client := &fakeLLM{respond: func(_ context.Context, _ string, docs []llm.Attachment) (string, error) {
		return fmt.Sprintf(`{"fullName": %q}`, string(docs[0].Data)), nil
	}}
	svc := NewGeminiService(client, GeminiConfig{}, zerolog.Nop())

	res := svc.Extract(context.Background(), ModeFacts, []types.Document{
		doc("scan.pdf", "John Smith"),
		doc("scan.pdf", "John A. Smith"),
	})

	require.False(t, res.Failed())
	require.Len(t, res.Payload.Facts, 2)
	assert.Equal(t, "scan.pdf", res.Payload.Facts[0].Source)
	assert.Equal(t, "scan.pdf (2)", res.Payload.Facts[1].Source)

	store := facts.New()
	for _, sf := range res.Payload.Facts {
		store.Merge(sf.Source, sf.Facts)
	}
	assert.Len(t, store.Values(types.FactFullName), 2)
}

func TestGeminiService_FactsFailureFailsWholeCall(t *testing.T) {
	client := &fakeLLM{respond: func(_ context.Context, prompt string, _ []llm.Attachment) (string, error) {
		if strings.Contains(prompt, "lease.txt") {
			return "", fmt.Errorf("quota exceeded")
		}
		return `{"fullName": "John Smith"}`, nil
	}}
	svc := NewGeminiService(client, GeminiConfig{}, zerolog.Nop())

	res := svc.Extract(context.Background(), ModeFacts, []types.Document{doc("license.txt", "a"), doc("lease.txt", "b")})

	require.True(t, res.Failed())
	assert.True(t, errors.Is(res.Err, errors.ErrExtractionFailed))
	assert.Contains(t, res.Err.Error(), "lease.txt")
}

func TestGeminiService_Timeout(t *testing.T) {
	client := &fakeLLM{respond: func(ctx context.Context, _ string, _ []llm.Attachment) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	svc := NewGeminiService(client, GeminiConfig{Timeout: 10 * time.Millisecond}, zerolog.Nop())

	res := svc.Extract(context.Background(), ModeSchema, []types.Document{doc("form.txt", "x")})

	require.True(t, res.Failed())
	assert.True(t, errors.Is(res.Err, errors.ErrExtractionFailed))
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestGeminiService_NoDocuments(t *testing.T) {
	svc := NewGeminiService(&fakeLLM{}, GeminiConfig{}, zerolog.Nop())

	res := svc.Extract(context.Background(), ModeFacts, nil)
	require.True(t, res.Failed())
	assert.True(t, errors.Is(res.Err, errors.ErrExtractionFailed))
}

func TestFailure_WrapsPlainErrors(t *testing.T) {
	res := Failure(ModeSchema, fmt.Errorf("boom"))
	assert.True(t, res.Failed())
	assert.True(t, errors.Is(res.Err, errors.ErrExtractionFailed))

	var ee *errors.ExtractionError
	require.True(t, errors.As(res.Err, &ee))
	assert.Equal(t, "schema", ee.Mode)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("facts")
	require.NoError(t, err)
	assert.Equal(t, ModeFacts, m)

	_, err = ParseMode("ocr")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}
