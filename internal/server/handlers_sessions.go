package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/form-filler/internal/session"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/jonathan/form-filler/internal/upload"
	"github.com/jonathan/form-filler/internal/wizard"
)

// selectRequest is the body of a candidate selection.
type selectRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// manualRequest is the body of a manual entry. Empty text clears it.
type manualRequest struct {
	Text string `json:"text" validate:"max=4096"`
}

// answersResponse is the completed form.
type answersResponse struct {
	SessionID string         `json:"session_id"`
	Answers   []types.Answer `json:"answers"`
}

// handleCreateSession starts a new session
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, c, err := s.sessions.Create()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.persist(r, id)
	s.jsonResponse(w, http.StatusCreated, session.Capture(id, c))
}

// handleGetSession returns the current snapshot
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, session.Capture(id, c))
}

// handleDeleteSession ends a session
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.lookup(w, r); !ok {
		return
	}
	s.sessions.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleSelectFiles replaces the selection of the current upload step with
// the multipart "files" parts.
func (s *Server) handleSelectFiles(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart body: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var maxSize int64
	if st := c.State(); !st.Complete {
		maxSize = c.Steps()[st.CurrentStep].MaxFileSize
	}
	headers := r.MultipartForm.File["files"]
	docs := make([]types.Document, 0, len(headers))
	for _, fh := range headers {
		doc, err := upload.FromMultipart(fh, maxSize)
		if err != nil {
			s.writeError(w, err)
			return
		}
		docs = append(docs, doc)
	}

	if err := c.Select(docs); err != nil {
		s.writeError(w, err)
		return
	}
	s.persist(r, id)
	s.jsonResponse(w, http.StatusOK, session.Capture(id, c))
}

// handleAdvance completes the current step. Extraction runs within the
// request; a concurrent advance on the same session gets 409.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := c.Advance(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.persist(r, id)
	s.jsonResponse(w, http.StatusOK, session.Capture(id, c))
}

// handleRetreat moves back one step
func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	c.Retreat()
	s.persist(r, id)
	s.jsonResponse(w, http.StatusOK, session.Capture(id, c))
}

// handleSelectCandidate resolves a conflicting field
func (s *Server) handleSelectCandidate(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := c.SelectCandidate(r.PathValue("field_id"), req.Answer); err != nil {
		s.writeError(w, err)
		return
	}
	s.persist(r, id)
	s.jsonResponse(w, http.StatusOK, session.Capture(id, c))
}

// handleEnterManual sets a free-text answer
func (s *Server) handleEnterManual(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req manualRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := c.EnterManual(r.PathValue("field_id"), req.Text); err != nil {
		s.writeError(w, err)
		return
	}
	s.persist(r, id)
	s.jsonResponse(w, http.StatusOK, session.Capture(id, c))
}

// handlePreview assembles the current answers without completing the
// session; unresolved fields yield 422 with their IDs.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	answers, err := c.Assemble()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, answersResponse{SessionID: id, Answers: answers})
}

// handleAnswers returns the completed form. Before completion it reports
// the unresolved fields (422) or that review has not been confirmed (409).
func (s *Server) handleAnswers(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	answers, done := c.Answers()
	if !done {
		if _, err := c.Assemble(); err != nil {
			s.writeError(w, err)
			return
		}
		s.errorResponse(w, http.StatusConflict, "session is not complete")
		return
	}
	s.jsonResponse(w, http.StatusOK, answersResponse{SessionID: id, Answers: answers})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *wizard.Controller, bool) {
	id := r.PathValue("id")
	c, err := s.sessions.Get(id)
	if err != nil {
		s.writeError(w, err)
		return "", nil, false
	}
	return id, c, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validator.Struct(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return false
	}
	return true
}

// persist snapshots the session; failures are logged and do not fail the request.
func (s *Server) persist(r *http.Request, id string) {
	if err := s.sessions.Persist(r.Context(), id); err != nil {
		s.log.Warn().Err(err).Str("session", id).Msg("Failed to persist session")
	}
}
