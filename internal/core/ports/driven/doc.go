// Package driven declares what the core needs from the outside world:
// stores for chunks, questions, papers and settings, the AI services, and
// the text pipeline that turns uploads into chunks.
//
// The AI services (EmbeddingService, LLMService, QuestionExtractor) may be
// nil. Services that need a missing one fail with
// domain.ErrEmbeddingUnavailable or domain.ErrLLMUnavailable instead of
// panicking, so the CLI stays usable for settings and listings.
//
// Only the domain package may be imported from here.
package driven
