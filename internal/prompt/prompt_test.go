package prompt

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestBuildConversationOrder(t *testing.T) {
	msgs := BuildConversation("Draw a red circle")
	if len(msgs) < 3 {
		t.Fatalf("conversation too short: %d messages", len(msgs))
	}
	if msgs[0].Role != "system" {
		t.Fatalf("first message role %q, want system", msgs[0].Role)
	}
	last := msgs[len(msgs)-1]
	if last.Role != "user" || last.Content != "Draw a red circle" {
		t.Fatalf("last message %+v, want the user request", last)
	}
}

func TestFewShotExampleIsCoherent(t *testing.T) {
	msgs := BuildConversation("x")

	var calls []string
	results := map[string]bool{}
	for _, m := range msgs {
		for _, c := range m.ToolCalls {
			if !gjson.Valid(c.Args) {
				t.Fatalf("call %s has invalid argument JSON: %s", c.ID, c.Args)
			}
			calls = append(calls, c.ID)
		}
		if m.Role == "tool" {
			results[m.ToolCallID] = true
		}
	}
	if len(calls) != 8 {
		t.Fatalf("expected 8 example calls, got %d", len(calls))
	}
	for _, id := range calls {
		if !results[id] {
			t.Fatalf("call %s has no tool result", id)
		}
	}
}

func TestSystemPromptNamesAllTools(t *testing.T) {
	for _, tool := range []string{"create_rectangle", "create_square", "create_circle", "create_line", "create_text"} {
		if !strings.Contains(SystemPrompt, tool) {
			t.Fatalf("system prompt missing %s", tool)
		}
	}
}
