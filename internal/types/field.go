// Package types provides the data model shared by the form-filling packages.
package types

// FieldType is an optional hint about the kind of answer a field expects.
type FieldType string

// Field types recognized on a blank form.
const (
	FieldTypeText    FieldType = "text"
	FieldTypeDate    FieldType = "date"
	FieldTypeAddress FieldType = "address"
	FieldTypePhone   FieldType = "phone"
	FieldTypeEmail   FieldType = "email"
)

// ParseFieldType returns the FieldType for s, or "" if s is not a known type.
func ParseFieldType(s string) FieldType {
	switch ft := FieldType(s); ft {
	case FieldTypeText, FieldTypeDate, FieldTypeAddress, FieldTypePhone, FieldTypeEmail:
		return ft
	default:
		return ""
	}
}

// Field is a labeled slot on the blank form. Fields are immutable once
// extracted; ID is unique within a session.
type Field struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	Type FieldType `json:"type,omitempty"`
}

// Answer pairs a field with its final answer.
type Answer struct {
	Field  Field  `json:"field"`
	Answer string `json:"answer"`
}
