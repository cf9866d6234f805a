package driven

// Prompt template names.
const (
	// PromptAnswer takes the retrieved context, then the question.
	PromptAnswer = "answer"

	// PromptExtractQuestions takes the paper text and asks for a JSON array.
	PromptExtractQuestions = "extract_questions"
)

// PromptStore serves prompt templates that users may edit.
type PromptStore interface {
	// Load returns the named template. Stores fall back to the built-in
	// text when the user's copy cannot be read.
	Load(name string) (string, error)

	// Reload drops cached templates so edits are picked up.
	Reload()
}

// PromptStoreAware is implemented by services whose prompts can be
// overridden. Without a store they use the built-in templates.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
