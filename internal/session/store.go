// Package session keeps the live review sessions of a server process. Each
// session owns one wizard controller; sessions expire after a period of
// inactivity and can be snapshotted to Postgres.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jonathan/form-filler/internal/db"
	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/jonathan/form-filler/internal/wizard"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = time.Hour

// Factory builds the controller of a new session.
type Factory func() (*wizard.Controller, error)

// Persister stores session snapshots. *db.DB implements it.
type Persister interface {
	SaveSessionSnapshot(ctx context.Context, s *db.SessionSnapshot) error
	SaveAnswers(ctx context.Context, sessionID uuid.UUID, answers []db.StoredAnswer) error
}

// Snapshot is the serializable view of a session.
type Snapshot struct {
	ID      string                   `json:"id"`
	State   wizard.State             `json:"state"`
	Fields  []types.FieldView        `json:"fields"`
	Facts   map[types.FactKey]string `json:"facts"`
	Answers []types.Answer           `json:"answers,omitempty"`
}

// Store maps session IDs to controllers.
type Store struct {
	cache   *gocache.Cache
	factory Factory
	persist Persister
	log     zerolog.Logger
}

// NewStore creates a registry. persist may be nil.
func NewStore(ttl time.Duration, factory Factory, persist Persister, log zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cache:   gocache.New(ttl, ttl/2),
		factory: factory,
		persist: persist,
		log:     log,
	}
}

// Create starts a new session.
func (s *Store) Create() (string, *wizard.Controller, error) {
	c, err := s.factory()
	if err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}
	id := uuid.NewString()
	s.cache.Set(id, c, gocache.DefaultExpiration)
	s.log.Info().Str("session", id).Msg("Session created")
	return id, c, nil
}

// Get returns a live session and extends its lifetime.
func (s *Store) Get(id string) (*wizard.Controller, error) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, errors.NewNotFoundError("session", id)
	}
	c := x.(*wizard.Controller)
	s.cache.Set(id, c, gocache.DefaultExpiration)
	return c, nil
}

// Delete ends a session.
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// Capture builds the snapshot of a controller.
func Capture(id string, c *wizard.Controller) Snapshot {
	ws := c.Snapshot()
	return Snapshot{
		ID:      id,
		State:   ws.State,
		Fields:  ws.Fields,
		Facts:   ws.Facts,
		Answers: ws.Answers,
	}
}

// Persist writes the current snapshot of a session, and its answers once
// complete. It is a no-op without a persister.
func (s *Store) Persist(ctx context.Context, id string) error {
	if s.persist == nil {
		return nil
	}
	c, err := s.Get(id)
	if err != nil {
		return err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return errors.NewValidationError("id", "session id is not a UUID")
	}

	snap := Capture(id, c)
	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.persist.SaveSessionSnapshot(ctx, &db.SessionSnapshot{
		ID:          uid,
		CurrentStep: snap.State.CurrentStep,
		StepCount:   snap.State.StepCount,
		Complete:    snap.State.Complete,
		State:       state,
	}); err != nil {
		return err
	}

	if snap.State.Complete {
		stored := make([]db.StoredAnswer, len(snap.Answers))
		for i, a := range snap.Answers {
			stored[i] = db.StoredAnswer{Position: i, FieldID: a.Field.ID, FieldText: a.Field.Text, Answer: a.Answer}
		}
		if err := s.persist.SaveAnswers(ctx, uid, stored); err != nil {
			return err
		}
	}

	s.log.Debug().Str("session", id).Int("step", snap.State.CurrentStep).Msg("Session persisted")
	return nil
}
