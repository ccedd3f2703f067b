package llm

import (
	"log"

	"github.com/tidwall/gjson"
)

// Call is a decoded tool invocation ready for normalization.
type Call struct {
	ID   string
	Name string
	Args map[string]any
}

// ExtractCalls decodes the invocations of a response into calls the
// pipeline can execute. Malformed entries (empty name, argument payload
// that is not a JSON object) are logged and skipped; extraction itself
// never fails, and provider order is preserved for the survivors.
func ExtractCalls(invs []Invocation) []Call {
	calls := make([]Call, 0, len(invs))
	for i, inv := range invs {
		if inv.Name == "" {
			log.Printf("[llm] skipping tool call %d: no function name", i)
			continue
		}
		args := inv.Args
		if args == "" {
			args = "{}"
		}
		if !gjson.Valid(args) {
			log.Printf("[llm] skipping tool call %d (%s): malformed arguments", i, inv.Name)
			continue
		}
		parsed := gjson.Parse(args)
		decoded, ok := parsed.Value().(map[string]any)
		if !ok {
			log.Printf("[llm] skipping tool call %d (%s): arguments are not an object", i, inv.Name)
			continue
		}
		calls = append(calls, Call{ID: inv.ID, Name: inv.Name, Args: decoded})
	}
	return calls
}
