// Package llm wraps the upstream completion providers behind a single
// client interface: tool-calling requests in, assistant text and tool
// invocations out.
package llm

import "context"

// ToolSpec is a provider-neutral tool declaration: name, description, and a
// JSON-schema parameter object.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Message is one turn of the conversation sent upstream.
type Message struct {
	Role    string // "system", "user", "assistant", "tool"
	Content string

	// ToolCalls carries the invocations of an assistant turn that called
	// tools; ToolCallID links a "tool" turn back to its invocation.
	ToolCalls  []Invocation
	ToolCallID string
}

// Invocation is one tool call extracted from an assistant response. Args is
// the raw JSON argument payload exactly as the provider sent it.
type Invocation struct {
	ID   string
	Name string
	Args string
}

// Request is one completion round-trip.
type Request struct {
	Model       string
	Messages    []Message
	Tools       []ToolSpec
	Temperature float64
	MaxTokens   int64
}

// Response is the assistant's reply: optional text, zero or more tool
// invocations in provider order, and token usage when reported.
type Response struct {
	Text        string
	Invocations []Invocation
	TotalTokens int64
}

// Chunk is one streamed delta. At most one of Text and Invocation is set;
// Done marks the final chunk and carries usage if the provider reports it.
type Chunk struct {
	Text        string
	Invocation  *Invocation
	Done        bool
	TotalTokens int64
}

// Client is a completion provider. Complete performs one blocking
// round-trip; Stream delivers chunks to emit until the response ends or ctx
// is cancelled. Implementations must return taxonomy errors from this
// package so callers can classify failures.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Stream(ctx context.Context, req Request, emit func(Chunk) error) error
}
