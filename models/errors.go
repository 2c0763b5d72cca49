package models

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is the cause carried by a ValidationError for a blank query.
var ErrEmptyQuery = errors.New("Query is required")

// ValidationError reports a request rejected before the pipeline starts.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// SearchProviderError reports a failed search call. It is fatal for the request.
type SearchProviderError struct {
	Provider string
	Err      error
}

func (e *SearchProviderError) Error() string {
	return fmt.Sprintf("search provider %s: %v", e.Provider, e.Err)
}
func (e *SearchProviderError) Unwrap() error { return e.Err }

// FetchWarning reports a single URL that could not be fetched. The fetcher
// recovers by using the search snippet instead.
type FetchWarning struct {
	URL string
	Err error
}

func (e *FetchWarning) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchWarning) Unwrap() error { return e.Err }

// RetrievalDegradation reports a document whose chunks could not be embedded
// or indexed. The document's content is emptied and the request continues.
type RetrievalDegradation struct {
	URL string
	Err error
}

func (e *RetrievalDegradation) Error() string {
	return fmt.Sprintf("retrieval degraded for %s: %v", e.URL, e.Err)
}
func (e *RetrievalDegradation) Unwrap() error { return e.Err }

// GenerationParseError reports model output that does not satisfy the answer schema.
type GenerationParseError struct {
	Raw string
	Err error
}

func (e *GenerationParseError) Error() string {
	return fmt.Sprintf("model output did not match answer schema: %v", e.Err)
}
func (e *GenerationParseError) Unwrap() error { return e.Err }

// ErrorKind names the taxonomy entry of err, or "InternalError".
func ErrorKind(err error) string {
	var (
		ve *ValidationError
		se *SearchProviderError
		fw *FetchWarning
		rd *RetrievalDegradation
		ge *GenerationParseError
	)
	switch {
	case errors.As(err, &ve):
		return "ValidationError"
	case errors.As(err, &se):
		return "SearchProviderError"
	case errors.As(err, &ge):
		return "GenerationParseError"
	case errors.As(err, &rd):
		return "RetrievalDegradation"
	case errors.As(err, &fw):
		return "FetchWarning"
	default:
		return "InternalError"
	}
}
