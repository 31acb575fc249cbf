package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"foodgram/internal/repositories"
)

var (
	// ErrNotFound and ErrDuplicate are the repository sentinels, re-exported
	// so handlers depend on services only.
	ErrNotFound  = repositories.ErrNotFound
	ErrDuplicate = repositories.ErrDuplicate

	ErrSelfFollow         = errors.New("cannot subscribe to yourself")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrUnauthorized       = errors.New("authentication credentials were not provided")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError carries per-field messages for a rejected request.
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

// Add records a message for field. The first message per field wins.
func (e *ValidationError) Add(field, format string, args ...any) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = fmt.Sprintf(format, args...)
	}
}

// OrNil returns e when it holds at least one field, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func invalid(field, format string, args ...any) *ValidationError {
	e := &ValidationError{}
	e.Add(field, format, args...)
	return e
}
