package matching

import (
	"strings"

	"github.com/jonathan/form-filler/internal/types"
)

// Rule maps trigger keywords, or declared field types, to a fact key.
type Rule struct {
	Keywords []string
	Types    []types.FieldType
	Key      types.FactKey
}

// DefaultRules is the keyword-to-fact table used by the Matcher.
// Keywords are tried over the whole table first, in order, so "email address"
// resolves to email before the address rule is reached. Declared field types
// are consulted only when no keyword fires.
var DefaultRules = []Rule{
	{Keywords: []string{"email", "e-mail"}, Types: []types.FieldType{types.FieldTypeEmail}, Key: types.FactEmail},
	{Keywords: []string{"phone", "telephone", "mobile"}, Types: []types.FieldType{types.FieldTypePhone}, Key: types.FactPhone},
	{Keywords: []string{"birth", "dob"}, Key: types.FactDateOfBirth},
	{Keywords: []string{"address"}, Types: []types.FieldType{types.FieldTypeAddress}, Key: types.FactAddress},
	{Keywords: []string{"name"}, Key: types.FactFullName},
}

// matchesKeyword reports whether any keyword occurs in the lowercased text.
func (r Rule) matchesKeyword(lower string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// matchesType reports whether the rule declares fieldType.
func (r Rule) matchesType(fieldType types.FieldType) bool {
	if fieldType == "" {
		return false
	}
	for _, t := range r.Types {
		if t == fieldType {
			return true
		}
	}
	return false
}
