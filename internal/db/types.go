package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionSnapshot is the stored state of one review session.
type SessionSnapshot struct {
	ID          uuid.UUID       `json:"id"`
	CurrentStep int             `json:"current_step"`
	StepCount   int             `json:"step_count"`
	Complete    bool            `json:"complete"`
	State       json.RawMessage `json:"state"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StoredAnswer is one assembled answer row.
type StoredAnswer struct {
	Position  int    `json:"position"`
	FieldID   string `json:"field_id"`
	FieldText string `json:"field_text"`
	Answer    string `json:"answer"`
}
