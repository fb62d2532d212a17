package extraction

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/types"
)

const mimePDF = "application/pdf"

// maxFieldDepth bounds recursion through the AcroForm field tree.
const maxFieldDepth = 32

// AcroFormService reads the text fields of fillable PDF forms locally.
// It supports schema mode only.
type AcroFormService struct {
	log zerolog.Logger
}

// NewAcroFormService creates a local form reader.
func NewAcroFormService(log zerolog.Logger) *AcroFormService {
	return &AcroFormService{log: log.With().Str("component", "acroform").Logger()}
}

// Extract implements Service.
func (s *AcroFormService) Extract(ctx context.Context, mode Mode, docs []types.Document) Result {
	if mode != ModeSchema {
		return Failure(mode, errors.NewExtractionError(string(mode), "local form reader only supports schema mode", nil))
	}
	if len(docs) == 0 {
		return Failure(mode, errors.NewValidationError("files", "no documents to extract from"))
	}

	var fields []types.Field
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return Failure(mode, err)
		}
		if !strings.HasPrefix(doc.MIMEType, mimePDF) {
			s.log.Debug().Str("document", doc.Name).Str("mime", doc.MIMEType).Msg("skipping non-PDF document")
			continue
		}
		found, err := ReadAcroFormFields(doc.Data)
		if err != nil {
			return Failure(mode, errors.NewExtractionError(string(mode), "reading "+doc.Name, err))
		}
		fields = append(fields, found...)
	}

	s.log.Info().Int("fields", len(fields)).Msg("form fields read")
	return Success(Payload{Fields: assignIDs(fields)})
}

// ReadAcroFormFields returns the text fields of a PDF form in document order.
// The tooltip (TU) labels the field when present, the partial name (T)
// otherwise. Field ids are the fully qualified field names.
func ReadAcroFormFields(data []byte) ([]types.Field, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return []types.Field{}, nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return []types.Field{}, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return []types.Field{}, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	r := &acroReader{ctx: ctx}
	for _, obj := range fieldsArray {
		r.walk(obj, "", "", 0)
	}
	return r.fields, nil
}

type acroReader struct {
	ctx    *model.Context
	fields []types.Field
}

// walk visits a field node; ft is the inherited field type.
func (r *acroReader) walk(obj pdftypes.Object, parentName, ft string, depth int) {
	if depth > maxFieldDepth {
		return
	}
	dict, err := r.ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return
	}

	name := r.str(dict, "T")
	fullName := name
	if parentName != "" && name != "" {
		fullName = parentName + "." + name
	} else if name == "" {
		fullName = parentName
	}

	if ftObj, ok := dict.Find("FT"); ok {
		if n, err := r.ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			ft = string(n)
		}
	}

	// Non-terminal nodes have kids that carry their own partial names;
	// widget kids have none.
	if kidsObj, ok := dict.Find("Kids"); ok {
		if kids, err := r.ctx.DereferenceArray(kidsObj); err == nil && r.hasNamedKid(kids) {
			for _, kid := range kids {
				r.walk(kid, fullName, ft, depth+1)
			}
			return
		}
	}

	if ft != "Tx" || fullName == "" {
		return
	}

	label := r.str(dict, "TU")
	if label == "" {
		label = name
	}
	r.fields = append(r.fields, types.Field{ID: fullName, Text: label, Type: guessFieldType(label + " " + name)})
}

func (r *acroReader) hasNamedKid(kids pdftypes.Array) bool {
	for _, kid := range kids {
		if d, err := r.ctx.DereferenceDict(kid); err == nil && d != nil {
			if _, ok := d.Find("T"); ok {
				return true
			}
		}
	}
	return false
}

func (r *acroReader) str(dict pdftypes.Dict, key string) string {
	obj, ok := dict.Find(key)
	if !ok {
		return ""
	}
	s, err := r.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// guessFieldType derives a type hint from a form field's label and name.
// Only whole words count, so "Hotel" is not a telephone field.
func guessFieldType(s string) types.FieldType {
	words := make(map[string]bool)
	for _, w := range labelWords(s) {
		words[w] = true
	}
	has := func(ws ...string) bool {
		for _, w := range ws {
			if words[w] {
				return true
			}
		}
		return false
	}
	switch {
	case has("email") || strings.Contains(strings.ToLower(s), "e-mail"):
		return types.FieldTypeEmail
	case has("phone", "telephone", "tel", "mobile"):
		return types.FieldTypePhone
	case has("date", "dob"):
		return types.FieldTypeDate
	case has("address", "addr"):
		return types.FieldTypeAddress
	default:
		return ""
	}
}

// labelWords splits s into lowercase words at non-alphanumerics and at
// camelCase boundaries ("txtPhoneNumber" is txt, phone, number).
func labelWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	var prev rune
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}
