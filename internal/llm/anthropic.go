package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient serves requests over the Messages API.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient builds a client for the given key. baseURL overrides
// the public endpoint when set.
func NewAnthropicClient(apiKey, baseURL string) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...)}
}

// defaultMaxTokens bounds responses when the request does not set a limit.
// The Messages API requires an explicit value.
const defaultMaxTokens = 4096

func (c *AnthropicClient) params(req Request) (anthropic.MessageNewParams, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				var args any
				if err := json.Unmarshal([]byte(call.Args), &args); err != nil {
					return anthropic.MessageNewParams{}, fmt.Errorf("%w: tool call %s arguments: %v", ErrBadRequest, call.Name, err)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, args, call.Name))
			}
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
		case "tool":
			params.Messages = append(params.Messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false),
			))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(m.Content),
			))
		}
	}
	for _, t := range req.Tools {
		schema, err := encodeInputSchema(t.Schema)
		if err != nil {
			return anthropic.MessageNewParams{}, fmt.Errorf("%w: tool %s schema: %v", ErrBadRequest, t.Name, err)
		}
		tool := anthropic.ToolParam{Name: t.Name, InputSchema: schema}
		if t.Description != "" {
			tool.Description = anthropic.String(t.Description)
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return params, nil
}

func encodeInputSchema(raw map[string]any) (anthropic.ToolInputSchemaParam, error) {
	if len(raw) == 0 {
		return anthropic.ToolInputSchemaParam{Type: "object"}, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return anthropic.ToolInputSchemaParam{}, err
	}
	var schema anthropic.ToolInputSchemaParam
	if err := json.Unmarshal(data, &schema); err != nil {
		return anthropic.ToolInputSchemaParam{}, err
	}
	if schema.Type == "" {
		schema.Type = "object"
	}
	return schema, nil
}

// Complete performs one blocking round-trip.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	params, err := c.params(req)
	if err != nil {
		return nil, err
	}
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapAnthropicError(err)
	}
	resp := &Response{
		TotalTokens: msg.Usage.InputTokens + msg.Usage.OutputTokens,
	}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Text += block.Text
		case "tool_use":
			resp.Invocations = append(resp.Invocations, Invocation{
				ID:   block.ID,
				Name: block.Name,
				Args: string(block.Input),
			})
		}
	}
	return resp, nil
}

// Stream satisfies the streaming path with a single round-trip replayed as
// chunks. Tool calls arrive whole rather than as argument fragments, which
// is what the pipeline consumes anyway.
func (c *AnthropicClient) Stream(ctx context.Context, req Request, emit func(Chunk) error) error {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}
	if resp.Text != "" {
		if err := emit(Chunk{Text: resp.Text}); err != nil {
			return err
		}
	}
	for i := range resp.Invocations {
		inv := resp.Invocations[i]
		if err := emit(Chunk{Invocation: &inv}); err != nil {
			return err
		}
	}
	return emit(Chunk{Done: true, TotalTokens: resp.TotalTokens})
}

func wrapAnthropicError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		if class := classifyStatus(apierr.StatusCode); class != nil {
			return fmt.Errorf("%w: %v", class, err)
		}
		return fmt.Errorf("anthropic: %w", err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

var _ Client = (*AnthropicClient)(nil)
