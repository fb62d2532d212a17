package types

// FactKey is the canonical key of a fact extracted from reference documents.
// Keys outside the fixed vocabulary are allowed and kept verbatim.
type FactKey string

// Canonical fact keys.
const (
	FactFullName    FactKey = "fullName"
	FactDateOfBirth FactKey = "dateOfBirth"
	FactAddress     FactKey = "address"
	FactPhone       FactKey = "phone"
	FactEmail       FactKey = "email"

	// FactRawText holds unstructured service output when no JSON could be recovered.
	FactRawText FactKey = "rawText"
)

// KnownFactKeys lists the fixed vocabulary in declaration order.
var KnownFactKeys = []FactKey{FactFullName, FactDateOfBirth, FactAddress, FactPhone, FactEmail}

// SourceFacts is the raw key/value output of one facts extraction over one source document.
type SourceFacts struct {
	Source string            `json:"source"`
	Facts  map[string]string `json:"facts"`
}
