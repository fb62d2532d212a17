package types

// Status is the resolution state of a field.
type Status string

// Reconciliation statuses.
const (
	StatusNoMatch  Status = "no_match"
	StatusConflict Status = "conflict"
	StatusResolved Status = "resolved"
)

// CandidateSet is the ordered list of proposed answers for a field.
type CandidateSet []string

// Record tracks the resolution state of one field.
type Record struct {
	FieldID        string       `json:"field_id"`
	Status         Status       `json:"status"`
	Candidates     CandidateSet `json:"candidates"`
	SelectedAnswer string       `json:"selected_answer,omitempty"`
	UserTouched    bool         `json:"user_touched"`
}

// FieldView is what the review surface shows for a field.
type FieldView struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Type           FieldType    `json:"type,omitempty"`
	Status         Status       `json:"status"`
	Candidates     CandidateSet `json:"candidates"`
	SelectedAnswer string       `json:"selected_answer,omitempty"`
}
