// Package agent orchestrates one chat request: assemble the conversation,
// call the completion service with retries, execute the returned tool
// calls, and shape the result.
package agent

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/drawspace-ai/canvasd/internal/canvas"
	"github.com/drawspace-ai/canvasd/internal/llm"
	"github.com/drawspace-ai/canvasd/internal/prompt"
)

// fallbackText stands in when the model returns tool calls without any
// accompanying prose.
const fallbackText = "I've processed your request and created the components."

// DefaultCanvasID names the shared canvas used when a request carries no
// canvasId of its own.
const DefaultCanvasID = "main"

// ChatRequest is one incoming design request. CanvasID is optional and
// defaults to the shared canvas.
type ChatRequest struct {
	Message  string `json:"message"`
	CanvasID string `json:"canvasId,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Service routes requests to the configured providers and drives the
// execution pipeline.
type Service struct {
	clients      map[llm.Provider]llm.Client
	registry     *canvas.Registry
	exec         *Executor
	retry        llm.RetryPolicy
	defaultModel string
	temperature  float64
	maxTokens    int64
}

// NewService wires the orchestrator. clients must hold an entry for every
// provider the model registry can resolve to. defaultModel is the alias
// used when a request names none; empty falls back to the registry default.
func NewService(clients map[llm.Provider]llm.Client, registry *canvas.Registry, exec *Executor, retry llm.RetryPolicy, defaultModel string, temperature float64, maxTokens int64) *Service {
	return &Service{
		clients:      clients,
		registry:     registry,
		exec:         exec,
		retry:        retry,
		defaultModel: defaultModel,
		temperature:  temperature,
		maxTokens:    maxTokens,
	}
}

// Providers lists the configured provider names, for health reporting.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.clients))
	for p := range s.clients {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

func (s *Service) buildRequest(req ChatRequest) (llm.Request, llm.Client, error) {
	model := req.Model
	if model == "" {
		model = s.defaultModel
	}
	info, err := llm.ResolveModel(model)
	if err != nil {
		return llm.Request{}, nil, err
	}
	client, ok := s.clients[info.Provider]
	if !ok {
		return llm.Request{}, nil, fmt.Errorf("%w: provider %s not configured", llm.ErrUnknownModel, info.Provider)
	}

	defs := s.registry.List()
	tools := make([]llm.ToolSpec, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, llm.ToolSpec{
			Name:        d.Name,
			Description: d.Description,
			Schema:      d.Schema(),
		})
	}
	return llm.Request{
		Model:       info.Upstream,
		Messages:    prompt.BuildConversation(req.Message),
		Tools:       tools,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}, client, nil
}

// ProcessMessage handles a blocking request: one completion round-trip
// under the retry policy, then batch execution of the extracted calls.
func (s *Service) ProcessMessage(ctx context.Context, req ChatRequest) (*Result, error) {
	llmReq, client, err := s.buildRequest(req)
	if err != nil {
		return nil, err
	}

	var resp *llm.Response
	err = s.retry.Do(ctx, "complete", func(ctx context.Context) error {
		var cerr error
		resp, cerr = client.Complete(ctx, llmReq)
		return cerr
	})
	if err != nil {
		return nil, err
	}

	calls := llm.ExtractCalls(resp.Invocations)
	log.Printf("[agent] canvas %s: %d tool calls from %s (%d tokens)",
		req.CanvasID, len(calls), llmReq.Model, resp.TotalTokens)

	actions := s.exec.ExecuteBatch(ctx, req.CanvasID, calls)

	text := resp.Text
	if text == "" {
		text = fallbackText
	}
	return &Result{
		Message:    text,
		Actions:    actions,
		ToolCalls:  len(calls),
		Model:      llmReq.Model,
		TokensUsed: resp.TotalTokens,
	}, nil
}

// StreamMessage handles a streaming request. Tool calls execute as they
// arrive, each surfacing a progress event with a short status line, while
// assistant text accumulates into the terminal complete event. The upstream
// call retries only while nothing has been emitted, so clients never see a
// restarted stream.
func (s *Service) StreamMessage(ctx context.Context, req ChatRequest, emit func(Event) error) error {
	llmReq, client, err := s.buildRequest(req)
	if err != nil {
		return err
	}

	var (
		text        string
		actions     []ActionResult
		toolCalls   int
		totalTokens int64
		emitted     bool
	)

	attempt := func(ctx context.Context) error {
		text = ""
		actions = actions[:0]
		toolCalls = 0
		return client.Stream(ctx, llmReq, func(chunk llm.Chunk) error {
			if chunk.Text != "" {
				text += chunk.Text
			}
			if chunk.Invocation != nil {
				calls := llm.ExtractCalls([]llm.Invocation{*chunk.Invocation})
				if len(calls) == 0 {
					return nil
				}
				toolCalls++
				var emitErr error
				res := s.exec.ExecuteStreaming(ctx, req.CanvasID, calls, func(r ActionResult) {
					if emitErr != nil {
						return
					}
					emitted = true
					emitErr = emit(Event{Type: EventProgress, Message: progressLine(r)})
				})
				actions = append(actions, res...)
				return emitErr
			}
			if chunk.Done {
				totalTokens = chunk.TotalTokens
			}
			return nil
		})
	}

	err = s.retry.Do(ctx, "stream", func(ctx context.Context) error {
		serr := attempt(ctx)
		if serr != nil && emitted && llm.Retryable(serr) {
			// Too late for a clean retry; surface the failure instead.
			return fmt.Errorf("stream interrupted: %v", serr)
		}
		return serr
	})
	if err != nil {
		return err
	}

	log.Printf("[agent] canvas %s: %d tool calls from %s (streaming, %d tokens)",
		req.CanvasID, toolCalls, llmReq.Model, totalTokens)

	if text == "" {
		text = fallbackText
	}
	return emit(Event{Type: EventComplete, Result: &Result{
		Message:    text,
		Actions:    actions,
		ToolCalls:  toolCalls,
		Model:      llmReq.Model,
		TokensUsed: totalTokens,
	}})
}

func progressLine(r ActionResult) string {
	if r.Status == StatusFailed {
		return fmt.Sprintf("%s failed: %s", r.Tool, r.Error)
	}
	if r.ObjectID != "" {
		return fmt.Sprintf("Executed %s (%s)", r.Tool, r.ObjectID)
	}
	return fmt.Sprintf("Executed %s", r.Tool)
}
