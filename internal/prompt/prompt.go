// Package prompt assembles the conversation sent to the completion service:
// a fixed design-guidance system prompt, a worked login-form example, and
// the user's request.
package prompt

import "github.com/drawspace-ai/canvasd/internal/llm"

// SystemPrompt guides the model toward professional component layouts built
// from the five canvas primitives.
const SystemPrompt = `You are an expert UI designer for a collaborative canvas application. Help users create professional interfaces using these primitives: rectangles, squares, circles, lines, and text.

## Available Tools

- **create_rectangle**: Containers, inputs, buttons, dividers (supports cornerRadius)
- **create_square**: Icons, grid items, thumbnails (supports cornerRadius)
- **create_circle**: Avatars, icons, indicators
- **create_line**: Dividers, underlines, connectors
- **create_text**: All text content (supports fontSize, fontWeight, fill, align)

**Important**: When creating multiple objects (e.g., "create 10 squares"), call the tool once for each object with different positions. Spread objects in a grid pattern across the canvas (0-5000 x, 0-5000 y).

## Design Principles

**Modern Visual Style**:
- Round corners for friendly feel: 4-8px typical (containers: 8px, inputs/buttons: 4px)
- Maintain consistent spacing: 20-30px between sections, 5-10px for related elements

**Color Palette**:
- Backgrounds: #ffffff, #f5f5f5 (light gray)
- Borders: #e0e0e0 (subtle), #cccccc (visible)
- Text: #333333 (primary), #666666 (secondary), #999999 (placeholder)
- Actions: #007bff (blue), #28a745 (green), #dc3545 (red) with #ffffff text

**Typography & Sizing**:
- Titles: 20-32px bold
- Labels: 14-16px normal
- Inputs/Buttons: 300-400px wide x 40-50px tall
- Form containers: 400-500px wide with 30-50px padding

## Common Patterns

**Login Form** (8 components):
1. Container (400x380, white, 8px radius, 30px padding)
2. Title ("Login", 24px bold, centered)
3. "Username" label (14px, left-aligned)
4. Username input (340x45, light fill, 4px radius)
5. "Password" label (14px, 20px below input)
6. Password input (340x45, matching style)
7. Submit button (340x45, #007bff fill, 25px below)
8. Button text ("Login", 16px bold, white, centered)

**Card**: Container + title + content + optional divider/button
**Button**: Colored rectangle + centered white text
**Profile**: Circle avatar + name text + bio text

## Approach

When users request UI components, understand their intent and create polished interfaces following modern design principles. Structure layouts logically (containers first, then content, then interactive elements). Use the patterns above as starting points but adapt to specific needs. Make thoughtful design choices for ambiguous requests based on best practices.`

// fewShot is the worked login-form exchange: one user turn, an assistant
// turn with eight creation calls, the eight tool results, and the closing
// assistant confirmation. Argument payloads are stored pre-serialized.
var fewShot = []llm.Message{
	{Role: "user", Content: "Create a login form"},
	{
		Role: "assistant",
		ToolCalls: []llm.Invocation{
			{ID: "call_1", Name: "create_rectangle", Args: `{"x":400,"y":200,"width":400,"height":380,"fill":"#ffffff","stroke":"#e0e0e0","strokeWidth":1,"cornerRadius":8}`},
			{ID: "call_2", Name: "create_text", Args: `{"x":570,"y":230,"text":"Login","fontSize":24,"fontWeight":"bold","fill":"#333333","align":"center"}`},
			{ID: "call_3", Name: "create_text", Args: `{"x":430,"y":280,"text":"Username","fontSize":14,"fill":"#666666"}`},
			{ID: "call_4", Name: "create_rectangle", Args: `{"x":430,"y":290,"width":340,"height":45,"fill":"#f5f5f5","stroke":"#cccccc","strokeWidth":1,"cornerRadius":4}`},
			{ID: "call_5", Name: "create_text", Args: `{"x":430,"y":355,"text":"Password","fontSize":14,"fill":"#666666"}`},
			{ID: "call_6", Name: "create_rectangle", Args: `{"x":430,"y":365,"width":340,"height":45,"fill":"#f5f5f5","stroke":"#cccccc","strokeWidth":1,"cornerRadius":4}`},
			{ID: "call_7", Name: "create_rectangle", Args: `{"x":430,"y":435,"width":340,"height":45,"fill":"#007bff","stroke":"#0056b3","strokeWidth":1,"cornerRadius":4}`},
			{ID: "call_8", Name: "create_text", Args: `{"x":570,"y":460,"text":"Login","fontSize":16,"fontWeight":"bold","fill":"#ffffff","align":"center"}`},
		},
	},
	{Role: "tool", ToolCallID: "call_1", Content: `{"success":true,"objectId":"rect_001"}`},
	{Role: "tool", ToolCallID: "call_2", Content: `{"success":true,"objectId":"text_001"}`},
	{Role: "tool", ToolCallID: "call_3", Content: `{"success":true,"objectId":"text_002"}`},
	{Role: "tool", ToolCallID: "call_4", Content: `{"success":true,"objectId":"rect_002"}`},
	{Role: "tool", ToolCallID: "call_5", Content: `{"success":true,"objectId":"text_003"}`},
	{Role: "tool", ToolCallID: "call_6", Content: `{"success":true,"objectId":"rect_003"}`},
	{Role: "tool", ToolCallID: "call_7", Content: `{"success":true,"objectId":"rect_004"}`},
	{Role: "tool", ToolCallID: "call_8", Content: `{"success":true,"objectId":"text_004"}`},
	{Role: "assistant", Content: "I've created a complete login form for you with all the components properly positioned."},
}

// BuildConversation assembles the full message list for one request:
// system prompt, few-shot exchange, then the user's message last.
func BuildConversation(userMessage string) []llm.Message {
	msgs := make([]llm.Message, 0, len(fewShot)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: SystemPrompt})
	msgs = append(msgs, fewShot...)
	msgs = append(msgs, llm.Message{Role: "user", Content: userMessage})
	return msgs
}
