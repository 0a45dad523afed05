// Package message defines the conversation data model shared by the agent
// loop, the workflow executor, and the LLM adapter boundary.
package message

// Role identifies who authored a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in an ordered conversation. Insertion order is
// significant: history is a sequence, not a set.
type Message struct {
	Role Role

	// Content is nullable — an assistant message that only carries tool
	// calls may have no text content.
	Content *string

	// ToolCalls is set when Role == RoleAssistant and the model requested
	// one or more tool invocations, in call-id registration order.
	ToolCalls []ToolCall

	// ToolCallID and Name are set when Role == RoleTool: they identify which
	// call this message is the observation for.
	ToolCallID string
	Name       string
}

// Text returns Content, or "" if nil.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// StrPtr is a small helper for building Message.Content literals.
func StrPtr(s string) *string { return &s }

// NewUser builds a user message.
func NewUser(content string) Message {
	return Message{Role: RoleUser, Content: StrPtr(content)}
}

// NewSystem builds a system message.
func NewSystem(content string) Message {
	return Message{Role: RoleSystem, Content: StrPtr(content)}
}

// NewAssistant builds an assistant message, content may be empty when the
// message only carries tool calls.
func NewAssistant(content string, calls []ToolCall) Message {
	var c *string
	if content != "" {
		c = StrPtr(content)
	}
	return Message{Role: RoleAssistant, Content: c, ToolCalls: calls}
}

// NewToolResult builds a tool observation message.
func NewToolResult(toolCallID, name, content string) Message {
	return Message{Role: RoleTool, Content: StrPtr(content), ToolCallID: toolCallID, Name: name}
}

// ToolCall is a stable, per-run-unique request from the model to invoke a
// registered tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult pairs a ToolCall's id with its outcome.
type ToolResult struct {
	ToolCallID string
	Success    bool
	Data       any
	Error      string
	Duration   int64 // nanoseconds, avoids importing time into the wire shape
}

// ToolCallRecord is the join of a ToolCall and its ToolResult, as recorded
// on an AgentRunResult.
type ToolCallRecord struct {
	ToolCall
	ToolResult
}

// TokenUsage accumulates monotonically over a run by pointwise addition.
type TokenUsage struct {
	Prompt     int
	Completion int
	Total      int
}

// Add returns the pointwise sum of u and o.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		Prompt:     u.Prompt + o.Prompt,
		Completion: u.Completion + o.Completion,
		Total:      u.Total + o.Total,
	}
}
