package types

import "github.com/go-playground/validator/v10"

// Document is one selected file: an opaque payload with a display name.
type Document struct {
	Name     string `json:"name" validate:"required"`
	MIMEType string `json:"mime_type" validate:"required"`
	Size     int64  `json:"size" validate:"gt=0"`
	Data     []byte `json:"-" validate:"required"`
}

// Validate validates the Document using the validator.
func (d *Document) Validate() error {
	validate := validator.New()
	return validate.Struct(d)
}
