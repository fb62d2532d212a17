// Package upload turns files into Documents and checks a selection against a
// step's limits.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/types"
)

// MIME types accepted by default.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOC  = "application/msword"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"
)

// DefaultAcceptedTypes covers PDF, DOC, DOCX and plain text.
var DefaultAcceptedTypes = []string{MIMEPDF, MIMEDOC, MIMEDOCX, MIMEText}

// DefaultMaxFileSize is 10 MiB.
const DefaultMaxFileSize int64 = 10 << 20

// Limits bounds what one wizard step accepts. AcceptedTypes entries are MIME
// types ("application/pdf") or extensions (".pdf").
type Limits struct {
	MaxFiles      int      `validate:"gte=1"`
	AcceptedTypes []string `validate:"dive,required"`
	MaxFileSize   int64    `validate:"gte=0"`
}

var validate = validator.New()

// FromBytes builds a Document, sniffing the MIME type from content.
func FromBytes(name string, data []byte) types.Document {
	return types.Document{
		Name:     filepath.Base(name),
		MIMEType: detect(name, data),
		Size:     int64(len(data)),
		Data:     data,
	}
}

// LoadFile reads a document from disk.
func LoadFile(path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return FromBytes(path, data), nil
}

// LoadFiles reads several documents from disk, in order.
func LoadFiles(paths []string) ([]types.Document, error) {
	docs := make([]types.Document, 0, len(paths))
	for _, p := range paths {
		d, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// FromMultipart reads an uploaded file. maxSize > 0 stops reading early
// when the part is larger than allowed.
func FromMultipart(fh *multipart.FileHeader, maxSize int64) (types.Document, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return types.Document{}, tooLarge(fh.Filename, fh.Size, maxSize)
	}

	f, err := fh.Open()
	if err != nil {
		return types.Document{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxSize > 0 {
		r = io.LimitReader(f, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return types.Document{}, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return types.Document{}, tooLarge(fh.Filename, int64(len(data)), maxSize)
	}
	return FromBytes(fh.Filename, data), nil
}

// ValidateSelection checks the selected documents against limits. An empty
// selection is valid here; steps that need files reject it on advance.
func ValidateSelection(docs []types.Document, limits Limits) error {
	if err := validate.Struct(limits); err != nil {
		return errors.NewValidationError("limits", err.Error())
	}
	if len(docs) > limits.MaxFiles {
		return errors.NewValidationError("files", fmt.Sprintf("at most %d file(s) allowed, got %d", limits.MaxFiles, len(docs)))
	}

	for _, d := range docs {
		if err := d.Validate(); err != nil {
			return errors.NewValidationError("files", fmt.Sprintf("%s: %v", d.Name, err))
		}
		if limits.MaxFileSize > 0 && d.Size > limits.MaxFileSize {
			return tooLarge(d.Name, d.Size, limits.MaxFileSize)
		}
		if !Accepted(d, limits.AcceptedTypes) {
			return errors.NewValidationError("files", fmt.Sprintf("%s: type %s is not accepted", d.Name, d.MIMEType))
		}
	}
	return nil
}

// Accepted reports whether a document matches one of the accepted types.
// An empty list accepts everything.
func Accepted(d types.Document, accepted []string) bool {
	if len(accepted) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(d.Name))
	for _, a := range accepted {
		a = strings.ToLower(strings.TrimSpace(a))
		if strings.HasPrefix(a, ".") {
			if a == ext {
				return true
			}
			continue
		}
		if mimetype.EqualsAny(d.MIMEType, a) {
			return true
		}
	}
	return false
}

// detect sniffs content first and falls back to the extension for formats
// whose signature is generic (legacy Word files are OLE containers).
func detect(name string, data []byte) string {
	m := mimetype.Detect(data)
	if m.Is("application/x-ole-storage") && strings.EqualFold(filepath.Ext(name), ".doc") {
		return MIMEDOC
	}
	return m.String()
}

func tooLarge(name string, size, max int64) error {
	return errors.NewValidationError("files", fmt.Sprintf("%s is %d bytes, limit is %d", name, size, max))
}
