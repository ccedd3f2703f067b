package canvas

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Param is one named parameter of a tool definition.
type Param struct {
	Name        string
	Type        string // JSON-schema type: "number" or "string"
	Description string
	Default     any
	Enum        []string
}

// ToolDefinition describes one canvas operation exposed to the completion
// service. Definitions are built once at startup and never mutated.
type ToolDefinition struct {
	Name        string
	Description string
	Params      []Param
	Required    []string
}

// Schema renders the definition's parameters as a JSON-schema object in the
// shape the completion wire format expects.
func (d ToolDefinition) Schema() map[string]any {
	props := make(map[string]any, len(d.Params))
	for _, p := range d.Params {
		spec := map[string]any{"type": p.Type}
		if p.Description != "" {
			spec["description"] = p.Description
		}
		if p.Default != nil {
			spec["default"] = p.Default
		}
		if len(p.Enum) > 0 {
			enum := make([]any, 0, len(p.Enum))
			for _, v := range p.Enum {
				enum = append(enum, v)
			}
			spec["enum"] = enum
		}
		props[p.Name] = spec
	}
	required := d.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Registry holds the fixed set of canvas tool definitions in declaration
// order. It is immutable after Validate and safe to share across requests.
type Registry struct {
	defs     []ToolDefinition
	byName   map[string]ToolDefinition
	compiled map[string]*jsonschema.Resolved
}

// NewRegistry builds a registry over the given definitions. Call Validate
// before use; an invalid registry is a fatal configuration error.
func NewRegistry(defs []ToolDefinition) *Registry {
	return &Registry{
		defs:     defs,
		byName:   make(map[string]ToolDefinition, len(defs)),
		compiled: make(map[string]*jsonschema.Resolved, len(defs)),
	}
}

// List returns the definitions in declaration order.
func (r *Registry) List() []ToolDefinition {
	return r.defs
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Validate checks the registry and compiles every tool's parameter schema.
// Checks, in order: registry non-empty; every definition has a name, a
// description, and parameters; every required parameter exists in the
// parameter list; names are unique. The process must abort startup if this
// fails.
func (r *Registry) Validate() error {
	if len(r.defs) == 0 {
		return fmt.Errorf("tool registry is empty")
	}
	for i, d := range r.defs {
		if d.Name == "" {
			return fmt.Errorf("tool at index %d has no name", i)
		}
		if d.Description == "" {
			return fmt.Errorf("tool %q has no description", d.Name)
		}
		if len(d.Params) == 0 {
			return fmt.Errorf("tool %q has no parameters", d.Name)
		}
		names := make(map[string]bool, len(d.Params))
		for _, p := range d.Params {
			names[p.Name] = true
		}
		for _, req := range d.Required {
			if !names[req] {
				return fmt.Errorf("tool %q requires parameter %q that is not defined", d.Name, req)
			}
		}
		if _, dup := r.byName[d.Name]; dup {
			return fmt.Errorf("duplicate tool name %q", d.Name)
		}
		resolved, err := compileSchema(d.Schema())
		if err != nil {
			return fmt.Errorf("tool %q schema: %w", d.Name, err)
		}
		r.byName[d.Name] = d
		r.compiled[d.Name] = resolved
	}
	return nil
}

// CheckArgs validates decoded invocation arguments against the tool's
// compiled parameter schema. Unknown tools and schema violations are the
// caller's per-action failures, never a batch failure.
func (r *Registry) CheckArgs(name string, args map[string]any) error {
	resolved, ok := r.compiled[name]
	if !ok {
		return fmt.Errorf("unknown tool %q", name)
	}
	// Resolved.Validate wants the generic JSON form.
	v := make(map[string]any, len(args))
	for k, val := range args {
		v[k] = val
	}
	if err := resolved.Validate(v); err != nil {
		return fmt.Errorf("arguments for %q: %w", name, err)
	}
	return nil
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}

// DefaultRegistry declares the full canvas tool set: five creation tools and
// four mutation tools. Built once at process start.
func DefaultRegistry() *Registry {
	return NewRegistry([]ToolDefinition{
		{
			Name:        "create_rectangle",
			Description: "Create a rectangle. Use for containers, input fields, buttons, and dividers. Supports cornerRadius for modern styling (4-8px typical).",
			Params: []Param{
				{Name: "x", Type: "number", Description: "X coordinate (top-left)"},
				{Name: "y", Type: "number", Description: "Y coordinate (top-left)"},
				{Name: "width", Type: "number", Description: "Width in pixels"},
				{Name: "height", Type: "number", Description: "Height in pixels"},
				{Name: "fill", Type: "string", Description: "Fill color (hex or rgba)", Default: "#007bff"},
				{Name: "stroke", Type: "string", Description: "Border color", Default: "#000000"},
				{Name: "strokeWidth", Type: "number", Description: "Border width in pixels", Default: 1},
				{Name: "cornerRadius", Type: "number", Description: "Corner radius for rounded corners", Default: 0},
				{Name: "rotation", Type: "number", Description: "Rotation in degrees. Default: 0", Default: 0},
			},
			Required: []string{"x", "y", "width", "height"},
		},
		{
			Name:        "create_square",
			Description: "Create a square. Use for icons, grid items, and thumbnails. Supports cornerRadius.",
			Params: []Param{
				{Name: "x", Type: "number", Description: "X coordinate (top-left)"},
				{Name: "y", Type: "number", Description: "Y coordinate (top-left)"},
				{Name: "size", Type: "number", Description: "Side length in pixels"},
				{Name: "fill", Type: "string", Description: "Fill color", Default: "#007bff"},
				{Name: "stroke", Type: "string", Description: "Border color", Default: "#000000"},
				{Name: "strokeWidth", Type: "number", Description: "Border width", Default: 1},
				{Name: "cornerRadius", Type: "number", Description: "Corner radius", Default: 0},
				{Name: "rotation", Type: "number", Description: "Rotation in degrees. Default: 0", Default: 0},
			},
			Required: []string{"x", "y", "size"},
		},
		{
			Name:        "create_circle",
			Description: "Create a circle. Use for avatars, icons, badges, and status indicators.",
			Params: []Param{
				{Name: "x", Type: "number", Description: "Center X coordinate"},
				{Name: "y", Type: "number", Description: "Center Y coordinate"},
				{Name: "radius", Type: "number", Description: "Radius in pixels"},
				{Name: "fill", Type: "string", Description: "Fill color", Default: "#ff0000"},
				{Name: "stroke", Type: "string", Description: "Border color", Default: "#000000"},
				{Name: "strokeWidth", Type: "number", Description: "Border width", Default: 1},
			},
			Required: []string{"x", "y", "radius"},
		},
		{
			Name:        "create_text",
			Description: "Create text. Use for titles, labels, button text, and body content. Supports fontSize, fontWeight (normal/bold), fill color, and alignment.",
			Params: []Param{
				{Name: "x", Type: "number", Description: "X coordinate"},
				{Name: "y", Type: "number", Description: "Y coordinate"},
				{Name: "text", Type: "string", Description: "Text content"},
				{Name: "fontSize", Type: "number", Description: "Font size in pixels", Default: 16},
				{Name: "fontWeight", Type: "string", Description: "Font weight", Default: "normal", Enum: []string{"normal", "bold"}},
				{Name: "fill", Type: "string", Description: "Text color", Default: "#000000"},
				{Name: "align", Type: "string", Description: "Text alignment", Default: "left", Enum: []string{"left", "center", "right"}},
			},
			Required: []string{"x", "y", "text"},
		},
		{
			Name:        "create_line",
			Description: "Create a line. Use for dividers, underlines, and connecting elements.",
			Params: []Param{
				{Name: "x1", Type: "number", Description: "Starting X coordinate"},
				{Name: "y1", Type: "number", Description: "Starting Y coordinate"},
				{Name: "x2", Type: "number", Description: "Ending X coordinate"},
				{Name: "y2", Type: "number", Description: "Ending Y coordinate"},
				{Name: "stroke", Type: "string", Description: "Line color", Default: "#000000"},
				{Name: "strokeWidth", Type: "number", Description: "Line width", Default: 1},
			},
			Required: []string{"x1", "y1", "x2", "y2"},
		},
		{
			Name:        "move_object",
			Description: "Move an existing object to a new position on the canvas.",
			Params: []Param{
				{Name: "objectId", Type: "string", Description: "The ID of the object to move"},
				{Name: "x", Type: "number", Description: "New X position (0-5000)"},
				{Name: "y", Type: "number", Description: "New Y position (0-5000)"},
			},
			Required: []string{"objectId", "x", "y"},
		},
		{
			Name:        "resize_object",
			Description: "Resize an existing object. For rectangles and text, provide width and height. For circles, provide radius.",
			Params: []Param{
				{Name: "objectId", Type: "string", Description: "The ID of the object to resize"},
				{Name: "width", Type: "number", Description: "New width in pixels (for rectangles and text)"},
				{Name: "height", Type: "number", Description: "New height in pixels (for rectangles and text)"},
				{Name: "radius", Type: "number", Description: "New radius in pixels (for circles)"},
			},
			Required: []string{"objectId"},
		},
		{
			Name:        "change_color",
			Description: "Change the fill color of an existing object.",
			Params: []Param{
				{Name: "objectId", Type: "string", Description: "The ID of the object to recolor"},
				{Name: "fill", Type: "string", Description: "New fill color in hex format (e.g., #FF0000)"},
			},
			Required: []string{"objectId", "fill"},
		},
		{
			Name:        "rotate_object",
			Description: "Rotate an existing object by a specified angle.",
			Params: []Param{
				{Name: "objectId", Type: "string", Description: "The ID of the object to rotate"},
				{Name: "rotation", Type: "number", Description: "Rotation angle in degrees (0-360)"},
			},
			Required: []string{"objectId", "rotation"},
		},
	})
}
