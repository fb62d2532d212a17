package facts

import (
	"strings"

	"github.com/jonathan/form-filler/internal/types"
)

// keyAliases maps a folded spelling (lowercase, separators removed) to its canonical key.
var keyAliases = map[string]types.FactKey{
	"fullname":      types.FactFullName,
	"name":          types.FactFullName,
	"applicantname": types.FactFullName,

	"dateofbirth": types.FactDateOfBirth,
	"dob":         types.FactDateOfBirth,
	"birthdate":   types.FactDateOfBirth,
	"birthday":    types.FactDateOfBirth,

	"address":       types.FactAddress,
	"streetaddress": types.FactAddress,
	"homeaddress":   types.FactAddress,

	"phone":       types.FactPhone,
	"phonenumber": types.FactPhone,
	"telephone":   types.FactPhone,
	"mobile":      types.FactPhone,

	"email":        types.FactEmail,
	"emailaddress": types.FactEmail,

	"rawtext": types.FactRawText,
}

// CanonicalKey maps a raw key from the extraction service onto the fixed
// vocabulary. Unrecognized keys are returned trimmed but otherwise verbatim.
func CanonicalKey(raw string) types.FactKey {
	trimmed := strings.TrimSpace(raw)
	if key, ok := keyAliases[fold(trimmed)]; ok {
		return key
	}
	return types.FactKey(trimmed)
}

// fold lowercases s and drops spaces, underscores and dashes.
func fold(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// normalizeValue collapses internal whitespace runs into single spaces.
func normalizeValue(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
