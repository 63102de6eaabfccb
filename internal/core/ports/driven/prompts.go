package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptGrounded is the strict grounding contract. The template holds
	// {context}, {question} and {refusal} placeholders.
	PromptGrounded = "grounded_answer"

	// PromptJudgeContext rates context relevance. Placeholders: {question}, {context}.
	PromptJudgeContext = "judge_context_relevance"

	// PromptJudgeFaithfulness rates grounding of an answer. Placeholders: {context}, {answer}.
	PromptJudgeFaithfulness = "judge_faithfulness"

	// PromptJudgeAnswer rates answer relevance. Placeholders: {question}, {answer}.
	PromptJudgeAnswer = "judge_answer_relevance"
)
