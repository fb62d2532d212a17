package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFieldType(t *testing.T) {
	assert.Equal(t, FieldTypeEmail, ParseFieldType("email"))
	assert.Equal(t, FieldTypeDate, ParseFieldType("date"))
	assert.Equal(t, FieldType(""), ParseFieldType("signature"))
	assert.Equal(t, FieldType(""), ParseFieldType(""))
}

func TestDocument_Validate(t *testing.T) {
	valid := Document{Name: "id.pdf", MIMEType: "application/pdf", Size: 3, Data: []byte("pdf")}
	assert.NoError(t, valid.Validate())

	tests := map[string]Document{
		"no name":  {MIMEType: "application/pdf", Size: 3, Data: []byte("pdf")},
		"no type":  {Name: "id.pdf", Size: 3, Data: []byte("pdf")},
		"empty":    {Name: "id.pdf", MIMEType: "application/pdf"},
		"no bytes": {Name: "id.pdf", MIMEType: "application/pdf", Size: 3},
	}
	for name, d := range tests {
		assert.Error(t, d.Validate(), name)
	}
}

func TestKnownFactKeys(t *testing.T) {
	assert.Equal(t, []FactKey{"fullName", "dateOfBirth", "address", "phone", "email"}, KnownFactKeys)
	assert.NotContains(t, KnownFactKeys, FactRawText)
}
