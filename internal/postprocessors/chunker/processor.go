// Package chunker provides a word-boundary text chunking processor.
package chunker

import (
	"context"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// Processor splits document content into chunks of whole words.
// Chunk length is counted in characters (runes), including the whitespace
// between the words of a chunk. Whitespace between chunks belongs to none.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// word is the span of one word in bytes and runes.
type word struct {
	start, end         int
	runeStart, runeEnd int
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// A word longer than the chunk size becomes a chunk of its own.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	words := splitWords(doc.Content)
	if len(words) == 0 {
		return nil, nil
	}

	var chunks []domain.Chunk
	first := words[0]
	last := words[0]

	emit := func() {
		chunks = append(chunks, domain.Chunk{
			ID:          uuid.New().String(),
			Text:        doc.Content[first.start:last.end],
			SourceName:  doc.Name,
			StartOffset: first.start,
			EndOffset:   last.end,
			Position:    len(chunks),
		})
	}

	for _, w := range words[1:] {
		if w.runeEnd-first.runeStart > p.chunkSize {
			emit()
			first = w
		}
		last = w
	}
	emit()

	return chunks, nil
}

// splitWords returns the maximal runs of non-space runes in s.
func splitWords(s string) []word {
	var (
		words   []word
		inWord  bool
		current word
		runeIdx int
	)

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			if inWord {
				current.end = i
				current.runeEnd = runeIdx
				words = append(words, current)
				inWord = false
			}
		} else if !inWord {
			current = word{start: i, runeStart: runeIdx}
			inWord = true
		}
		i += size
		runeIdx++
	}

	if inWord {
		current.end = len(s)
		current.runeEnd = runeIdx
		words = append(words, current)
	}

	return words
}
