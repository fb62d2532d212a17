package extraction

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/llm"
	"github.com/jonathan/form-filler/internal/schemas"
	"github.com/jonathan/form-filler/internal/types"
)

// DecodeSchema reads a schema-mode response into an ordered field list.
// Malformed or non-JSON output yields zero fields; shape problems are
// logged, never returned.
func DecodeSchema(raw string, log zerolog.Logger) []types.Field {
	cleaned := llm.CleanJSONBlock(raw)
	if cleaned == "" {
		return []types.Field{}
	}

	// Some responses wrap the list: {"fields": [...]}
	if strings.HasPrefix(cleaned, "{") {
		var wrapper struct {
			Fields json.RawMessage `json:"fields"`
		}
		if err := json.Unmarshal([]byte(cleaned), &wrapper); err == nil && len(wrapper.Fields) > 0 {
			cleaned = string(wrapper.Fields)
		}
	}

	if !strings.HasPrefix(cleaned, "[") {
		logMalformed(log, ModeSchema, "no JSON array in response", nil)
		return []types.Field{}
	}

	if err := schemas.Validate(schemas.FormFields, cleaned); err != nil {
		logMalformed(log, ModeSchema, "response does not match field schema", err)
	}

	var items []map[string]any
	if err := decodeNumbers(cleaned, &items); err != nil {
		logMalformed(log, ModeSchema, "invalid JSON", err)
		return []types.Field{}
	}

	fields := make([]types.Field, 0, len(items))
	for _, item := range items {
		text, _ := item["text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		typ, _ := item["type"].(string)
		fields = append(fields, types.Field{
			ID:   scalarString(item["id"]),
			Text: text,
			Type: types.ParseFieldType(strings.ToLower(strings.TrimSpace(typ))),
		})
	}

	return assignIDs(fields)
}

// DecodeFacts reads a facts-mode response into a key/value mapping. Output
// without JSON is kept whole under rawText; partial key sets are accepted;
// scalar values are stringified and nested values dropped.
func DecodeFacts(raw string, log zerolog.Logger) map[string]string {
	trimmed := strings.TrimSpace(raw)
	out := map[string]string{}
	if trimmed == "" {
		return out
	}

	cleaned := llm.CleanJSONBlock(trimmed)
	var objects []map[string]any

	switch {
	case strings.HasPrefix(cleaned, "{"):
		var obj map[string]any
		if err := decodeNumbers(cleaned, &obj); err != nil {
			logMalformed(log, ModeFacts, "invalid JSON object", err)
			out[string(types.FactRawText)] = trimmed
			return out
		}
		if err := schemas.Validate(schemas.Facts, cleaned); err != nil {
			logMalformed(log, ModeFacts, "response does not match facts schema", err)
		}
		objects = append(objects, obj)
	case strings.HasPrefix(cleaned, "["):
		// A list of partial objects; later entries win.
		if err := decodeNumbers(cleaned, &objects); err != nil {
			logMalformed(log, ModeFacts, "invalid JSON array", err)
			out[string(types.FactRawText)] = trimmed
			return out
		}
	default:
		log.Debug().Msg("facts response has no JSON, keeping raw text")
		out[string(types.FactRawText)] = trimmed
		return out
	}

	for _, obj := range objects {
		for key, value := range obj {
			s := scalarString(value)
			if s == "" {
				if value != nil {
					log.Debug().Str("key", key).Msg("dropping non-scalar fact value")
				}
				continue
			}
			out[key] = s
		}
	}
	return out
}

// assignIDs gives positional ids ("1".."n") to fields without one and
// suffixes repeated ids so every id is unique.
func assignIDs(fields []types.Field) []types.Field {
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		id := strings.TrimSpace(fields[i].ID)
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		if seen[id] {
			base := id
			for n := 2; seen[id]; n++ {
				id = base + "-" + strconv.Itoa(n)
			}
		}
		seen[id] = true
		fields[i].ID = id
	}
	return fields
}

// sourceNames returns one fact source per document. Repeated names get a
// " (2)", " (3)" suffix so two "scan.pdf" uploads stay distinct sources.
func sourceNames(docs []types.Document) []string {
	names := make([]string, len(docs))
	seen := make(map[string]bool, len(docs))
	for i, d := range docs {
		name := d.Name
		if seen[name] {
			for n := 2; seen[name]; n++ {
				name = d.Name + " (" + strconv.Itoa(n) + ")"
			}
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

func decodeNumbers(s string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	return dec.Decode(v)
}

// scalarString renders a decoded JSON scalar; nested values and null give "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func logMalformed(log zerolog.Logger, mode Mode, msg string, err error) {
	log.Warn().Err(&errors.MalformedResponseError{Mode: string(mode), Message: msg, Err: err}).Msg("degrading malformed response")
}
