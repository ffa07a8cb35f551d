package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrFormat indicates a transcript that does not follow the document convention.
	// It halts ingestion of that document only.
	ErrFormat = errors.New("malformed transcript")

	// ErrCatalogEmpty indicates course resolution ran against an empty catalog.
	ErrCatalogEmpty = fmt.Errorf("%w: course catalog is empty", ErrNotFound)

	// ErrNoMatchingCourse indicates the best catalog match fell below the
	// configured similarity threshold.
	ErrNoMatchingCourse = fmt.Errorf("%w: no matching course", ErrNotFound)

	// ErrIndexEmpty indicates a content search against an empty content collection.
	ErrIndexEmpty = fmt.Errorf("%w: content index is empty", ErrNotFound)

	// ErrIndex indicates the vector backend or embedder failed.
	ErrIndex = errors.New("index failure")

	// ErrGeneration indicates the generative model call failed or
	// returned nothing usable. Queries are not retried.
	ErrGeneration = errors.New("generation failed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// FormatError describes why a transcript could not be parsed.
type FormatError struct {
	// URI is where the transcript came from, if known.
	URI string

	// Line is the 1-based line the problem was found on, 0 when it
	// applies to the whole document.
	Line int

	// Reason is a short human-readable description.
	Reason string
}

// Error implements error.
func (e *FormatError) Error() string {
	msg := ErrFormat.Error()
	if e.URI != "" {
		msg += " " + e.URI
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(": line %d", e.Line)
	}
	return msg + ": " + e.Reason
}

// Unwrap lets errors.Is match ErrFormat.
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// ErrorClass is a coarse category used by transports to pick a status.
type ErrorClass string

// Error classes.
const (
	ClassNoData   ErrorClass = "no_data"
	ClassNoMatch  ErrorClass = "no_match"
	ClassNotFound ErrorClass = "not_found"
	ClassUpstream ErrorClass = "upstream"
	ClassInvalid  ErrorClass = "invalid"
	ClassUnknown  ErrorClass = "unknown"
)

// Classify maps an error onto an ErrorClass.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCatalogEmpty), errors.Is(err, ErrIndexEmpty):
		return ClassNoData
	case errors.Is(err, ErrNoMatchingCourse):
		return ClassNoMatch
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrIndex), errors.Is(err, ErrGeneration),
		errors.Is(err, ErrLLMUnavailable), errors.Is(err, ErrEmbeddingUnavailable):
		return ClassUpstream
	case errors.Is(err, ErrFormat), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedType):
		return ClassInvalid
	default:
		return ClassUnknown
	}
}
