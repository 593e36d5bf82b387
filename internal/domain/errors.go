package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is.
var (
	// ErrIngestion indicates a corpus directory is missing or unreadable
	ErrIngestion = errors.New("ingestion failed")

	// ErrEmbedding indicates the embedding capability failed or timed out
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration indicates the generation capability failed or timed out
	ErrGeneration = errors.New("generation failed")

	// ErrParse indicates generated text is not the expected JSON document
	ErrParse = errors.New("parse failed")

	// ErrValidation indicates a parsed document violates the profile schema
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedLanguage indicates a language code with no configured route
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrIndexNotFound indicates a persisted index is missing or corrupt
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexUnavailable indicates a routed language has no loaded index
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrInvalidConfig indicates a configuration value is out of range
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLanguageMismatch indicates chunks of another language were offered to an index
	ErrLanguageMismatch = errors.New("language mismatch")

	// ErrDimensionMismatch indicates vectors of differing length
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmptyInput indicates a request carried no text
	ErrEmptyInput = errors.New("empty input")
)

// IngestionError reports a corpus that could not be read for a language.
type IngestionError struct {
	Language Language
	Path     string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s corpus at %s: %v", e.Language, e.Path, e.Err)
}

func (e *IngestionError) Unwrap() error        { return e.Err }
func (e *IngestionError) Is(target error) bool { return target == ErrIngestion }

// EmbeddingFailure wraps an error returned by the embedding capability.
type EmbeddingFailure struct {
	Err error
}

func (e *EmbeddingFailure) Error() string        { return fmt.Sprintf("embedding failure: %v", e.Err) }
func (e *EmbeddingFailure) Unwrap() error        { return e.Err }
func (e *EmbeddingFailure) Is(target error) bool { return target == ErrEmbedding }

// GenerationFailure wraps an error returned by the generation capability.
type GenerationFailure struct {
	Err error
}

func (e *GenerationFailure) Error() string        { return fmt.Sprintf("generation failure: %v", e.Err) }
func (e *GenerationFailure) Unwrap() error        { return e.Err }
func (e *GenerationFailure) Is(target error) bool { return target == ErrGeneration }

// ParseFailure reports generated text that is not a JSON object.
type ParseFailure struct {
	Raw string
	Err error
}

func (e *ParseFailure) Error() string        { return fmt.Sprintf("parse failure: %v", e.Err) }
func (e *ParseFailure) Unwrap() error        { return e.Err }
func (e *ParseFailure) Is(target error) bool { return target == ErrParse }

// ValidationFailure names the schema field that failed and why.
type ValidationFailure struct {
	Field  string
	Reason string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("validation failure: field %q %s", e.Field, e.Reason)
}

func (e *ValidationFailure) Is(target error) bool { return target == ErrValidation }

// UnsupportedLanguageError carries the rejected language code.
type UnsupportedLanguageError struct {
	Code string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q", e.Code)
}

func (e *UnsupportedLanguageError) Is(target error) bool { return target == ErrUnsupportedLanguage }

// IndexNotFoundError reports a persisted index location that is absent or corrupt.
type IndexNotFoundError struct {
	Location string
	Err      error
}

func (e *IndexNotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("index not found at %s", e.Location)
	}
	return fmt.Sprintf("index not found at %s: %v", e.Location, e.Err)
}

func (e *IndexNotFoundError) Unwrap() error        { return e.Err }
func (e *IndexNotFoundError) Is(target error) bool { return target == ErrIndexNotFound }
