package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAIClient serves requests over the Chat Completions API.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient builds a client for the given key. baseURL overrides the
// public endpoint when set (proxies, self-hosted gateways).
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

func (c *OpenAIClient) params(req Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, convertAssistant(m))
		case "tool":
			params.Messages = append(params.Messages, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  shared.FunctionParameters(t.Schema),
		}))
	}
	if len(params.Tools) > 0 {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("auto"),
		}
	}
	return params
}

func convertAssistant(m Message) openai.ChatCompletionMessageParamUnion {
	msg := openai.ChatCompletionAssistantMessageParam{Role: "assistant"}
	if m.Content != "" {
		msg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(m.Content),
		}
	}
	for _, call := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: call.Args,
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &msg}
}

// Complete performs one blocking round-trip.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	completion, err := c.client.Chat.Completions.New(ctx, c.params(req))
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", ErrUnavailable)
	}
	msg := completion.Choices[0].Message
	resp := &Response{
		Text:        msg.Content,
		TotalTokens: completion.Usage.TotalTokens,
	}
	for _, tc := range msg.ToolCalls {
		resp.Invocations = append(resp.Invocations, Invocation{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: tc.Function.Arguments,
		})
	}
	return resp, nil
}

// toolCallState accumulates the fragments of one streamed tool call.
type toolCallState struct {
	id   string
	name string
	args string
}

// Stream performs one streamed round-trip, emitting text deltas as they
// arrive. Tool-call fragments are accumulated per choice index and emitted
// as whole invocations on the final chunk, in index order.
func (c *OpenAIClient) Stream(ctx context.Context, req Request, emit func(Chunk) error) error {
	params := c.params(req)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}
	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	calls := make(map[int]*toolCallState)
	var totalTokens int64
	for stream.Next() {
		chunk := stream.Current()
		if chunk.Usage.TotalTokens > 0 {
			totalTokens = chunk.Usage.TotalTokens
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			if err := emit(Chunk{Text: delta.Content}); err != nil {
				return err
			}
		}
		for _, tc := range delta.ToolCalls {
			idx := int(tc.Index)
			st, ok := calls[idx]
			if !ok {
				st = &toolCallState{}
				calls[idx] = st
			}
			if tc.ID != "" {
				st.id = tc.ID
			}
			if tc.Function.Name != "" {
				st.name = tc.Function.Name
			}
			st.args += tc.Function.Arguments
		}
	}
	if err := stream.Err(); err != nil {
		return wrapOpenAIError(err)
	}
	if err := emitAccumulated(calls, emit); err != nil {
		return err
	}
	return emit(Chunk{Done: true, TotalTokens: totalTokens})
}

func emitAccumulated(calls map[int]*toolCallState, emit func(Chunk) error) error {
	idxs := make([]int, 0, len(calls))
	for i := range calls {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	for _, i := range idxs {
		st := calls[i]
		inv := &Invocation{ID: st.id, Name: st.name, Args: st.args}
		if err := emit(Chunk{Invocation: inv}); err != nil {
			return err
		}
	}
	return nil
}

func wrapOpenAIError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		if class := classifyStatus(apierr.StatusCode); class != nil {
			return fmt.Errorf("%w: %v", class, err)
		}
		return fmt.Errorf("openai: %w", err)
	}
	// Network-level failures without a status are treated as transient.
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

var _ Client = (*OpenAIClient)(nil)
