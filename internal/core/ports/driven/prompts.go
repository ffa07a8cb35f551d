package driven

// PromptStore serves named prompt templates, falling back to
// DefaultPrompts for names it has no override for.
type PromptStore interface {
	Load(name string) (string, error)

	// Reload drops cached templates so edits on disk are picked up.
	Reload()
}

const (
	PromptChatSystem = "chat_system" // answer loop system prompt, no placeholders
	PromptHistory    = "history"     // one %s for the formatted exchanges
)

// PromptStoreAware services accept a PromptStore after construction.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}

// DefaultPrompts are the built-in templates, used when no PromptStore is
// configured and as the initial content of user-editable prompt files.
var DefaultPrompts = map[string]string{
	PromptChatSystem: `You are an AI assistant specialized in course materials and educational content, with access to tools for course information.

Tool usage:
- search_course_content: questions about specific course content or detailed educational materials
- get_course_outline: questions about a course outline, its structure, link, instructor or lesson list
- Use at most one tool per query
- Synthesize tool results into accurate, fact-based responses
- If a tool yields no results, state this clearly without offering alternatives

Response protocol:
- General knowledge questions: answer from existing knowledge without using a tool
- Course-specific questions: use a tool first, then answer
- For outline questions, return the course title, course link and every lesson with its number and title
- No meta-commentary: do not explain your reasoning, your search process or the tool used

All responses must be brief, educational, clear and example-supported where it helps.
Provide only the direct answer to what was asked.`,

	PromptHistory: `Previous conversation:
%s`,
}
