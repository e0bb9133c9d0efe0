package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrRetrievalUnavailable  = errors.New("retrieval unavailable")
	ErrGenerationUnavailable = errors.New("generation unavailable")
	ErrTemporary             = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

type errStr string

func (e errStr) Error() string { return string(e) }

// GenerationError is surfaced when answer generation failed after its retry.
// It keeps the sources that were already retrieved so the caller can still
// show them.
type GenerationError struct {
	Sources []SourceReference
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate answer: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// SourcesFromError extracts retained sources from a generation failure, if any.
func SourcesFromError(err error) []SourceReference {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Sources
	}
	return nil
}
