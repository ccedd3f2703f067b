package agent

// ActionResult records one executed action: the canonical kind with its
// parameters, plus the execution outcome. A failed action never aborts its
// siblings.
type ActionResult struct {
	Tool     string         `json:"tool"`
	Kind     string         `json:"type"`
	Params   map[string]any `json:"params,omitempty"`
	ObjectID string         `json:"objectId,omitempty"`
	Status   string         `json:"status"` // "ok" or "failed"
	Error    string         `json:"error,omitempty"`
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Result is the terminal payload of a chat request.
type Result struct {
	Message    string         `json:"response"`
	Actions    []ActionResult `json:"actions"`
	ToolCalls  int            `json:"toolCalls"`
	Model      string         `json:"model"`
	TokensUsed int64          `json:"tokensUsed,omitempty"`
}

// Event is one server-sent frame of a streaming chat request. Progress
// events carry a short status line per executed action; the complete event
// carries the full result.
type Event struct {
	Type    string  `json:"type"` // "progress", "complete", "error"
	Message string  `json:"message,omitempty"`
	Result  *Result `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
}

const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)
