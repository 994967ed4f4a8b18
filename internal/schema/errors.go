package schema

import (
	"fmt"
	"strings"
)

// Reasons reported for rejected fields.
const (
	MsgRequired       = "is required"
	MsgInvalidFormat  = "has an invalid format"
	MsgInvalidNumber  = "must be a number"
	MsgInvalidInteger = "must be an integer"
	MsgNonNegative    = "must be >= 0"
	MsgPositive       = "must be > 0"
	MsgOutOfRange     = "is out of range"
)

// FieldError is one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a failure for field. Only the first reason per field is kept.
func (e *ValidationError) Add(field, message string) {
	for _, f := range e.Fields {
		if f.Field == field {
			return
		}
	}
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field already failed.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

// orNil keeps typed-nil pointers out of error interfaces.
func (e *ValidationError) orNil() error {
	if e.empty() {
		return nil
	}
	return e
}

// RowError carries the validation failures of one imported row.
type RowError struct {
	Index  int          `json:"index"`
	Fields []FieldError `json:"errors"`
}

// ImportError is returned when one or more rows of a batch import fail.
type ImportError struct {
	Rows []RowError `json:"rows"`
}

func (e *ImportError) Error() string {
	idx := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		idx[i] = fmt.Sprint(r.Index)
	}
	return "invalid rows at index " + strings.Join(idx, ", ")
}
