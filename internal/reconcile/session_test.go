package reconcile

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/matching"
	"github.com/jonathan/form-filler/internal/types"
)

var sampleFields = []types.Field{
	{ID: "1", Text: "What is your full name?"},
	{ID: "2", Text: "Date of birth?"},
	{ID: "3", Text: "Current address"},
}

func newTestSession() *Session {
	return NewSession(matching.Default(), zerolog.Nop())
}

func TestSession_ReplaceFieldsCreatesNoMatchRecords(t *testing.T) {
	s := newTestSession()
	s.ReplaceFields(sampleFields)

	require.Equal(t, 3, s.Records().Len())
	for _, r := range s.Records().List() {
		assert.Equal(t, types.StatusNoMatch, r.Status)
		assert.Empty(t, r.Candidates)
	}
}

func TestSession_ScenarioA(t *testing.T) {
	s := newTestSession()
	s.ReplaceFields(sampleFields[:1])
	s.MergeFacts(types.SourceFacts{Source: "id.pdf", Facts: map[string]string{"fullName": "John Smith"}})

	r, ok := s.Records().Get("1")
	require.True(t, ok)
	assert.Equal(t, types.StatusResolved, r.Status)
	assert.Equal(t, "John Smith", r.SelectedAnswer)
}

func TestSession_ScenarioB(t *testing.T) {
	s := newTestSession()
	s.ReplaceFields(sampleFields[1:2])
	s.MergeFacts()

	r, _ := s.Records().Get("2")
	assert.Equal(t, types.StatusNoMatch, r.Status)

	require.NoError(t, s.EnterManual("2", "1990-01-01"))
	r, _ = s.Records().Get("2")
	assert.Equal(t, types.StatusResolved, r.Status)
	assert.Equal(t, "1990-01-01", r.SelectedAnswer)
}

func TestSession_FactsBeforeForm(t *testing.T) {
	s := newTestSession()
	s.MergeFacts(types.SourceFacts{Source: "lease.pdf", Facts: map[string]string{"address": "123 Main St"}})
	s.ReplaceFields(sampleFields)

	r, _ := s.Records().Get("3")
	assert.Equal(t, types.StatusResolved, r.Status)
	assert.Equal(t, "123 Main St", r.SelectedAnswer)
}

func TestSession_ConflictAcrossDocuments(t *testing.T) {
	s := newTestSession()
	s.ReplaceFields(sampleFields)
	s.MergeFacts(
		types.SourceFacts{Source: "license.pdf", Facts: map[string]string{"fullName": "John Smith"}},
		types.SourceFacts{Source: "lease.pdf", Facts: map[string]string{"fullName": "John A. Smith"}},
	)

	r, _ := s.Records().Get("1")
	assert.Equal(t, types.StatusConflict, r.Status)
	assert.Equal(t, types.CandidateSet{"John Smith", "John A. Smith"}, r.Candidates)

	require.NoError(t, s.SelectCandidate("1", "John A. Smith"))
	r, _ = s.Records().Get("1")
	assert.Equal(t, types.StatusResolved, r.Status)
}

func TestSession_ReseedRespectsUserChoice(t *testing.T) {
	s := newTestSession()
	s.ReplaceFields(sampleFields)
	require.NoError(t, s.EnterManual("1", "Jane Doe"))

	s.MergeFacts(types.SourceFacts{Source: "id.pdf", Facts: map[string]string{"fullName": "John Smith"}})

	r, _ := s.Records().Get("1")
	assert.Equal(t, "Jane Doe", r.SelectedAnswer)
	assert.True(t, r.UserTouched)
}

func TestSession_ClearedAnswerReceivesLaterFacts(t *testing.T) {
	s := newTestSession()
	s.ReplaceFields(sampleFields)
	require.NoError(t, s.EnterManual("1", "J"))
	require.NoError(t, s.EnterManual("1", ""))

	s.MergeFacts(
		types.SourceFacts{Source: "license.pdf", Facts: map[string]string{"fullName": "John Smith"}},
		types.SourceFacts{Source: "lease.pdf", Facts: map[string]string{"fullName": "John A. Smith"}},
	)

	r, _ := s.Records().Get("1")
	assert.Equal(t, types.StatusConflict, r.Status)
	assert.Equal(t, types.CandidateSet{"John Smith", "John A. Smith"}, r.Candidates)
	require.NoError(t, s.SelectCandidate("1", "John Smith"))
}

func TestSession_ManualAnswerSeesNewCandidates(t *testing.T) {
	s := newTestSession()
	s.ReplaceFields(sampleFields)
	require.NoError(t, s.EnterManual("1", "Jane Doe"))

	s.MergeFacts(types.SourceFacts{Source: "id.pdf", Facts: map[string]string{"fullName": "John Smith"}})

	r, _ := s.Records().Get("1")
	assert.Equal(t, "Jane Doe", r.SelectedAnswer)
	assert.Equal(t, types.CandidateSet{"John Smith"}, r.Candidates)
	require.NoError(t, s.SelectCandidate("1", "John Smith"))
}

func TestSession_ReplaceFieldsDropsOldRecords(t *testing.T) {
	s := newTestSession()
	s.ReplaceFields(sampleFields)
	require.NoError(t, s.EnterManual("1", "Jane Doe"))

	s.ReplaceFields([]types.Field{{ID: "a", Text: "Email"}})

	_, ok := s.Records().Get("1")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Records().Len())
}

func TestSession_UnknownField(t *testing.T) {
	s := newTestSession()
	s.ReplaceFields(sampleFields)

	err := s.SelectCandidate("99", "x")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	err = s.EnterManual("99", "x")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSession_View(t *testing.T) {
	s := newTestSession()
	s.ReplaceFields(sampleFields)
	s.MergeFacts(types.SourceFacts{Source: "id.pdf", Facts: map[string]string{"fullName": "John Smith"}})

	views := s.View()
	require.Len(t, views, 3)
	assert.Equal(t, "1", views[0].ID)
	assert.Equal(t, "What is your full name?", views[0].Text)
	assert.Equal(t, types.StatusResolved, views[0].Status)
	assert.Equal(t, "John Smith", views[0].SelectedAnswer)
	assert.Equal(t, types.StatusNoMatch, views[1].Status)
}

func TestSet_DuplicateFieldIDsKeepFirst(t *testing.T) {
	set := NewSet([]types.Field{{ID: "1", Text: "a"}, {ID: "1", Text: "b"}})
	assert.Equal(t, 1, set.Len())
}

func TestSet_Unresolved(t *testing.T) {
	set := NewSet(sampleFields)
	require.NoError(t, set.EnterManual("2", "x"))

	assert.Equal(t, []string{"1", "3"}, set.Unresolved())
}

func TestSet_GetReturnsCopy(t *testing.T) {
	set := NewSet(sampleFields)
	r, _ := set.Get("1")
	r.Status = types.StatusResolved

	again, _ := set.Get("1")
	assert.Equal(t, types.StatusNoMatch, again.Status)
}
