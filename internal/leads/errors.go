package leads

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrAlreadyRegistered  = errors.New("email or phone already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyInterested  = errors.New("you have already expressed interest in this property")
	ErrForbidden          = errors.New("not allowed")
)

// ValidationError lists problems with submitted fields, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type validator struct {
	fields map[string]string
}

func (v *validator) check(ok bool, field, msg string) {
	if ok {
		return
	}
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// MismatchError is returned when a buyer's preferences rule out a property.
// No lead is created.
type MismatchError struct {
	Reasons []string
}

func (e *MismatchError) Error() string {
	return "this property doesn't match your preferences: " + strings.Join(e.Reasons, ", ")
}
