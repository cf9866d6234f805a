package domain

import "time"

// Document is a piece of study material submitted to a session.
// It is the input to chunking; it is never persisted itself.
type Document struct {
	// Name is the display name of the source (usually the file name).
	Name string

	// Content is the full extracted text.
	Content string
}

// Chunk represents a bounded slice of a document's text within one session.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// SessionID is the session that owns this chunk.
	SessionID string

	// Text is the chunk content, exactly Document.Content[StartOffset:EndOffset].
	Text string

	// Embedding is the vector representation used for retrieval.
	Embedding []float32

	// SourceName is the name of the document this chunk was cut from.
	SourceName string

	// StartOffset is the byte offset of the first character in the source text.
	StartOffset int

	// EndOffset is the byte offset one past the last character in the source text.
	EndOffset int

	// Position is the ordinal position within the source document.
	Position int

	// CreatedAt is when the chunk was indexed.
	CreatedAt time.Time
}

// ScoredChunk is a chunk returned by a retrieval query with its similarity.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the cosine similarity to the query embedding.
	Score float64
}

// IndexResult summarises an indexing request.
type IndexResult struct {
	// SessionID is the session the documents were indexed into.
	SessionID string

	// DocumentCount is the number of documents processed.
	DocumentCount int

	// ChunkCount is the number of chunks stored.
	ChunkCount int
}
