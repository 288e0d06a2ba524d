package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSourceUnavailable    = errors.New("source unavailable")
	ErrSchemaInvalid        = errors.New("schema invalid")
	ErrEmptyQuery           = errors.New("empty query")
	ErrEmptyKeywordList     = errors.New("empty keyword list")
	ErrNoResults            = errors.New("no results")
	ErrMissingFilename      = errors.New("missing filename")
	ErrResourceUnresolvable = errors.New("resource unresolvable")
	ErrUnknownDomain        = errors.New("unknown domain")
	ErrSessionNotFound      = errors.New("session not found")
	ErrRecordNotFound       = errors.New("record not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrTemporary            = errors.New("temporary failure")
	ErrTimeout              = errors.New("timeout")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// Errorf builds a typed error without an underlying cause.
func Errorf(kind error, operation, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", operation, kind, fmt.Sprintf(format, args...))
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// SchemaError reports columns a dataset lacks.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s is missing required column(s): %s", ErrSchemaInvalid, e.Source, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaInvalid }

// ResolveError is returned when every filename candidate failed to fetch.
type ResolveError struct {
	Filename   string
	Candidates []string
	Last       error
}

func (e *ResolveError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%s: %q: tried %d candidate(s)", ErrResourceUnresolvable, e.Filename, len(e.Candidates))
	}
	return fmt.Sprintf("%s: %q: tried %d candidate(s): last error: %v", ErrResourceUnresolvable, e.Filename, len(e.Candidates), e.Last)
}

func (e *ResolveError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrResourceUnresolvable}
	}
	return []error{ErrResourceUnresolvable, e.Last}
}

// Outcome is a short label for err suitable for metrics and events.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyQuery):
		return "empty_query"
	case errors.Is(err, ErrEmptyKeywordList):
		return "empty_keyword_list"
	case errors.Is(err, ErrNoResults):
		return "no_results"
	case errors.Is(err, ErrSchemaInvalid):
		return "schema_invalid"
	case errors.Is(err, ErrMissingFilename):
		return "missing_filename"
	case errors.Is(err, ErrResourceUnresolvable):
		return "unresolvable"
	case errors.Is(err, ErrUnknownDomain):
		return "unknown_domain"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrRecordNotFound):
		return "record_not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrTemporary):
		return "temporary"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
