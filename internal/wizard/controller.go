package wizard

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jonathan/form-filler/internal/assembly"
	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/extraction"
	"github.com/jonathan/form-filler/internal/reconcile"
	"github.com/jonathan/form-filler/internal/types"
)

// State is a snapshot of the wizard.
type State struct {
	CurrentStep  int        `json:"current_step"`
	StepCount    int        `json:"step_count"`
	StepName     string     `json:"step_name,omitempty"`
	StepKind     StepKind   `json:"step_kind,omitempty"`
	Selections   [][]string `json:"selections"`
	IsProcessing bool       `json:"is_processing"`
	Complete     bool       `json:"complete"`
}

// Controller drives one session through its steps. The mutex guards all
// controller state; extraction calls run outside it, fenced by processing.
type Controller struct {
	mu         sync.Mutex
	steps      []Step
	current    int
	selections [][]types.Document
	processing bool
	cancel     context.CancelFunc
	generation uint64
	answers    []types.Answer

	session *reconcile.Session
	service extraction.Service
	log     zerolog.Logger
}

// New creates a controller. Nil steps means DefaultSteps; a nil session
// means a fresh one with the default matcher.
func New(service extraction.Service, session *reconcile.Session, steps []Step, log zerolog.Logger) (*Controller, error) {
	if service == nil {
		return nil, errors.NewValidationError("service", "extraction service is required")
	}
	if steps == nil {
		steps = DefaultSteps()
	}
	if err := ValidateSteps(steps); err != nil {
		return nil, err
	}
	if session == nil {
		session = reconcile.NewSession(nil, log)
	}
	return &Controller{
		steps:      append([]Step(nil), steps...),
		selections: make([][]types.Document, len(steps)),
		session:    session,
		service:    service,
		log:        log,
	}, nil
}

// Select sets the file selection of the current upload step.
func (c *Controller) Select(docs []types.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIdle(); err != nil {
		return err
	}
	step := c.steps[c.current]
	if !step.IsUpload() {
		return errors.NewValidationError("files", "step "+step.Name+" does not take files")
	}
	if err := step.CheckSelection(docs); err != nil {
		return err
	}

	c.selections[c.current] = append([]types.Document(nil), docs...)
	c.log.Debug().Str("step", step.Name).Int("files", len(docs)).Msg("Selection updated")
	return nil
}

// Advance completes the current step. Upload steps run extraction and move
// on only when it succeeds; the review step assembles the answers.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkIdle(); err != nil {
		c.mu.Unlock()
		return err
	}

	step := c.steps[c.current]
	if !step.IsUpload() {
		defer c.mu.Unlock()
		return c.assembleLocked()
	}

	docs := c.selections[c.current]
	if len(docs) == 0 {
		c.mu.Unlock()
		return errors.NewValidationError("files", "select at least one file for "+step.Name)
	}

	callCtx, cancel := context.WithCancel(ctx)
	c.processing = true
	c.cancel = cancel
	c.generation++
	gen, index, mode := c.generation, c.current, step.Mode()
	c.mu.Unlock()

	c.log.Info().Str("step", step.Name).Str("mode", string(mode)).Int("files", len(docs)).Msg("Extraction started")
	res := c.service.Extract(callCtx, mode, docs)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		// Retreated while pending; the result belongs to a step the user left.
		c.log.Info().Str("step", step.Name).Msg("Extraction result discarded")
		return errors.NewExtractionError(string(mode), "discarded after retreat", context.Canceled)
	}
	c.processing = false
	c.cancel = nil

	if res.Failed() {
		c.log.Warn().Err(res.Err).Str("step", step.Name).Msg("Extraction failed")
		return res.Err
	}

	switch mode {
	case extraction.ModeSchema:
		c.session.ReplaceFields(res.Payload.Fields)
	case extraction.ModeFacts:
		c.session.MergeFacts(res.Payload.Facts...)
	}
	c.current = index + 1
	c.log.Info().Str("step", step.Name).Int("current_step", c.current).Msg("Step completed")
	return nil
}

// assembleLocked runs the final assembly. Callers hold mu.
func (c *Controller) assembleLocked() error {
	answers, err := assembly.Assemble(c.session.Fields(), c.session.Records().Map())
	if err != nil {
		return err
	}
	c.answers = answers
	c.current++
	c.log.Info().Int("answers", len(answers)).Msg("Form assembled")
	return nil
}

// Retreat moves back one step. It is always permitted: a pending
// extraction is cancelled and its result discarded. Records are untouched.
func (c *Controller) Retreat() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.processing {
		c.cancel()
		c.cancel = nil
		c.processing = false
		c.generation++
	}
	if c.current == len(c.steps) {
		c.answers = nil
	}
	if c.current > 0 {
		c.current--
	}
}

// SelectCandidate resolves a field to one of its candidates.
func (c *Controller) SelectCandidate(fieldID, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIdle(); err != nil {
		return err
	}
	return c.session.SelectCandidate(fieldID, answer)
}

// EnterManual sets a free-text answer; empty text clears the manual answer.
func (c *Controller) EnterManual(fieldID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIdle(); err != nil {
		return err
	}
	return c.session.EnterManual(fieldID, text)
}

// Snapshot is a consistent view of a controller: everything in it was read
// under one lock.
type Snapshot struct {
	State   State
	Fields  []types.FieldView
	Facts   map[types.FactKey]string
	Answers []types.Answer
}

// Snapshot returns the state, review rows, facts and (once complete) the
// answers together.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:  c.stateLocked(),
		Fields: c.session.View(),
		Facts:  c.session.Facts().Snapshot(),
	}
	if snap.State.Complete {
		snap.Answers = append([]types.Answer(nil), c.answers...)
	}
	return snap
}

// State returns a snapshot of the wizard.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	st := State{
		CurrentStep:  c.current,
		StepCount:    len(c.steps),
		Selections:   make([][]string, len(c.selections)),
		IsProcessing: c.processing,
		Complete:     c.current == len(c.steps),
	}
	if !st.Complete {
		st.StepName = c.steps[c.current].Name
		st.StepKind = c.steps[c.current].Kind
	}
	for i, docs := range c.selections {
		names := make([]string, len(docs))
		for j, d := range docs {
			names[j] = d.Name
		}
		st.Selections[i] = names
	}
	return st
}

// Steps returns the step configuration.
func (c *Controller) Steps() []Step {
	return append([]Step(nil), c.steps...)
}

// View returns the review rows for every field.
func (c *Controller) View() []types.FieldView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.View()
}

// Facts returns the latest value of every fact.
func (c *Controller) Facts() map[types.FactKey]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Facts().Snapshot()
}

// Answers returns the assembled answers once the wizard is complete.
func (c *Controller) Answers() ([]types.Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != len(c.steps) {
		return nil, false
	}
	return append([]types.Answer(nil), c.answers...), true
}

// Assemble builds the answer list from the current records without moving
// the wizard.
func (c *Controller) Assemble() ([]types.Answer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return assembly.Assemble(c.session.Fields(), c.session.Records().Map())
}

// checkIdle rejects changes while extracting or after completion. Callers hold mu.
func (c *Controller) checkIdle() error {
	if c.processing {
		return &errors.BusyError{Step: c.steps[c.current].Name}
	}
	if c.current == len(c.steps) {
		return errors.NewValidationError("step", "wizard is complete")
	}
	return nil
}
