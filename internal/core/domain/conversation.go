package domain

import "strconv"

// Role is the author of a conversation message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn sent to a generative model.
// Exactly one of Content, ToolRequest or ToolResult is meaningful,
// except that an assistant ToolRequest may carry accompanying text.
type Message struct {
	Role        Role
	Content     string
	ToolRequest *ToolRequest
	ToolResult  *ToolResult
}

// ToolDeclaration describes a tool the model may call.
type ToolDeclaration struct {
	// Name is the identifier the model uses to call the tool.
	Name string

	// Description tells the model when to use the tool.
	Description string

	// Parameters is a JSON Schema object describing the arguments.
	Parameters map[string]any
}

// Reply is what a generative model returns: a FinalAnswer or a ToolRequest.
type Reply interface {
	isReply()
}

// FinalAnswer is a plain text reply.
type FinalAnswer struct {
	Text string
}

// ToolRequest asks the caller to run a tool.
type ToolRequest struct {
	// ID correlates the request with its result.
	ID string

	// Name is the requested tool.
	Name string

	// Arguments are the decoded tool arguments.
	Arguments map[string]any

	// Text is any prose the model emitted alongside the request.
	Text string
}

func (FinalAnswer) isReply() {}
func (ToolRequest) isReply() {}

// ToolResult is the outcome of running a tool, always textual.
type ToolResult struct {
	// CallID matches ToolRequest.ID.
	CallID string

	// Name is the tool that ran.
	Name string

	// Content is the text handed back to the model.
	Content string

	// Sources is the provenance of Content.
	Sources []Source

	// IsError marks Content as an error description.
	IsError bool
}

// StringArg returns a string argument, or "" when absent or mistyped.
func (r ToolRequest) StringArg(name string) string {
	if v, ok := r.Arguments[name].(string); ok {
		return v
	}
	return ""
}

// IntArg returns an integer argument. JSON numbers arrive as float64 and
// some models send numbers as strings.
func (r ToolRequest) IntArg(name string) (*int, bool) {
	switch v := r.Arguments[name].(type) {
	case nil:
		return nil, true
	case float64:
		if v != float64(int(v)) {
			return nil, false
		}
		return LessonRef(int(v)), true
	case int:
		return LessonRef(v), true
	case int64:
		return LessonRef(int(v)), true
	case string:
		if v == "" {
			return nil, true
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, false
		}
		return LessonRef(n), true
	default:
		return nil, false
	}
}
