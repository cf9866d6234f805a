package domain

import "errors"

// Sentinel errors. Adapters wrap them with %w so callers can branch with
// errors.Is regardless of which store or provider failed.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput is returned before any side effect has happened.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict means a conditional update lost to a concurrent writer.
	ErrConflict = errors.New("revision conflict")

	// ErrProvider wraps failures of embedding, generation and extraction
	// calls.
	ErrProvider = errors.New("provider error")

	// ErrPersistence wraps failures of the backing store.
	ErrPersistence = errors.New("persistence error")

	// ErrLLMUnavailable disables answering and question extraction.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable disables indexing, retrieval and
	// deduplication.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrUnsupportedType is an unknown document format or provider.
	ErrUnsupportedType = errors.New("unsupported type")
)
