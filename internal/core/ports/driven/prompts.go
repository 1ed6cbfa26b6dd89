package driven

// PromptStore supplies prompt templates by name. An error means the caller
// should fall back to its built-in template.
type PromptStore interface {
	Load(name string) (string, error)
}

// Well-known prompt names used throughout the application.
const (
	// PromptRAGAnswer instructs the LLM to answer a question from retrieved context.
	// The template expects {context} and {question} placeholders.
	PromptRAGAnswer = "rag_answer"
)

// DefaultRAGAnswerPrompt is the built-in PromptRAGAnswer template.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const DefaultRAGAnswerPrompt = `You are given a set of context information and a question. Follow these steps carefully to provide the best possible answer.

1. First, read the context thoroughly.
2. If the context fully answers the question, use that information directly in your reply.
3. If the context does not contain the full answer but you can answer the question using your own reliable knowledge, provide the answer from that knowledge.
4. If neither the context nor your own knowledge can give a confident and correct answer, clearly say: "I don't know."
5. Never make up facts or speculate without a solid basis. Ensure the answer is accurate, clear, and easy to understand.
6. If answering from your own knowledge (not from context), you may indicate this by stating: "Based on my knowledge..." to help distinguish sources.

Context:
{context}

Question:
{question}

Answer:`

// Placeholders substituted into prompt templates.
const (
	PlaceholderContext  = "{context}"
	PlaceholderQuestion = "{question}"
)

// RequiredPlaceholders lists the placeholders each named template must contain.
var RequiredPlaceholders = map[string][]string{
	PromptRAGAnswer: {PlaceholderContext, PlaceholderQuestion},
}

// PromptStoreAware is implemented by services whose prompts can be customised
// after construction. Without a store they use the built-in templates.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
