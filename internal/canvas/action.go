package canvas

import "time"

// Creation verbs arrive from the completion service as create_<shape>; the
// document store keys object types by the bare shape name.
const createPrefix = "create_"

// Action is a tool invocation in canonical form: the kind the rest of the
// pipeline dispatches on, plus decoded parameters.
type Action struct {
	Kind   string
	Params map[string]any
}

// Normalize maps a raw tool name and decoded arguments to a canonical
// Action. At most one creation prefix is stripped; names without the prefix
// pass through unchanged, so the mapping is idempotent.
func Normalize(toolName string, args map[string]any) Action {
	kind := toolName
	if len(kind) > len(createPrefix) && kind[:len(createPrefix)] == createPrefix {
		kind = kind[len(createPrefix):]
	}
	return Action{Kind: kind, Params: args}
}

// Mutation kinds operate on existing objects and are dispatched individually
// rather than staged into a creation batch.
const (
	KindMove   = "move_object"
	KindResize = "resize_object"
	KindColor  = "change_color"
	KindRotate = "rotate_object"
)

// IsMutation reports whether the action modifies an existing object.
func (a Action) IsMutation() bool {
	switch a.Kind {
	case KindMove, KindResize, KindColor, KindRotate:
		return true
	}
	return false
}

// Keys excluded from persisted documents. Reserved for transport metadata
// and unsupported style extensions.
var excludedFields = map[string]bool{
	"metadata":  true,
	"boxShadow": true,
}

// Object is a canvas object document ready for persistence.
type Object struct {
	ID     string
	Fields map[string]any
}

// Document flattens a creation action into stored fields. Excluded keys and
// nil values are dropped; type, position, rotation, zIndex, and the audit
// timestamps are always present.
func (a Action) Document(id, createdBy string, now time.Time) Object {
	fields := map[string]any{
		"type":      a.Kind,
		"x":         float64(0),
		"y":         float64(0),
		"rotation":  float64(0),
		"zIndex":    float64(0),
		"createdBy": createdBy,
		"createdAt": now,
	}
	for k, v := range a.Params {
		if v == nil || excludedFields[k] {
			continue
		}
		fields[k] = v
	}
	return Object{ID: id, Fields: fields}
}
