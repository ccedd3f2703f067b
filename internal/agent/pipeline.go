package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/drawspace-ai/canvasd/internal/canvas"
	"github.com/drawspace-ai/canvasd/internal/live"
	"github.com/drawspace-ai/canvasd/internal/llm"
	"github.com/drawspace-ai/canvasd/internal/store"
)

// Executor turns extracted tool calls into store writes and live updates.
// Each action is isolated: a failure is recorded in its result and the
// remaining actions still run.
type Executor struct {
	registry *canvas.Registry
	store    store.Store
	live     *live.Hub

	newID func() string
	now   func() time.Time
}

// NewExecutor wires the pipeline. live may be nil when no fan-out is
// configured.
func NewExecutor(registry *canvas.Registry, st store.Store, hub *live.Hub) *Executor {
	return &Executor{
		registry: registry,
		store:    st,
		live:     hub,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// ExecuteBatch runs the calls for a blocking request. Mutations apply
// immediately; creations are staged and committed in one atomic write after
// the loop, so a commit failure leaves zero new objects and downgrades
// every staged creation to failed.
func (e *Executor) ExecuteBatch(ctx context.Context, canvasID string, calls []llm.Call) []ActionResult {
	results := make([]ActionResult, 0, len(calls))
	var staged []canvas.Object
	var stagedResults []int // indexes into results for staged creations

	for _, call := range calls {
		res, obj := e.run(ctx, canvasID, call)
		if obj != nil {
			staged = append(staged, *obj)
			stagedResults = append(stagedResults, len(results))
		}
		results = append(results, res)
	}

	if len(staged) > 0 {
		if err := e.store.BatchWrite(ctx, canvasID, staged); err != nil {
			log.Printf("[agent] batch commit failed on canvas %s: %v", canvasID, err)
			for _, i := range stagedResults {
				results[i].Status = StatusFailed
				results[i].ObjectID = ""
				results[i].Error = fmt.Sprintf("batch commit failed: %v", err)
			}
		} else {
			for _, obj := range staged {
				e.announceCreate(canvasID, obj)
			}
		}
	}
	return results
}

// ExecuteStreaming runs the calls for a streaming request. Every action,
// creation included, commits immediately so the per-action events reflect
// durable state. onResult fires after each action.
func (e *Executor) ExecuteStreaming(ctx context.Context, canvasID string, calls []llm.Call, onResult func(ActionResult)) []ActionResult {
	results := make([]ActionResult, 0, len(calls))
	for _, call := range calls {
		res, obj := e.run(ctx, canvasID, call)
		if obj != nil {
			if err := e.store.Put(ctx, canvasID, *obj); err != nil {
				res.Status = StatusFailed
				res.ObjectID = ""
				res.Error = fmt.Sprintf("write failed: %v", err)
			} else {
				e.announceCreate(canvasID, *obj)
			}
		}
		results = append(results, res)
		if onResult != nil {
			onResult(res)
		}
	}
	return results
}

// run validates and dispatches one call. For creations the built object is
// returned for the caller to commit; for mutations the write happens here.
func (e *Executor) run(ctx context.Context, canvasID string, call llm.Call) (ActionResult, *canvas.Object) {
	action := canvas.Normalize(call.Name, call.Args)
	res := ActionResult{Tool: call.Name, Kind: action.Kind, Params: action.Params, Status: StatusOK}

	if err := e.registry.CheckArgs(call.Name, call.Args); err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		log.Printf("[agent] action %s rejected: %v", call.Name, err)
		return res, nil
	}

	if action.IsMutation() {
		if err := e.mutate(ctx, canvasID, action, &res); err != nil {
			res.Status = StatusFailed
			res.Error = err.Error()
			log.Printf("[agent] action %s failed: %v", call.Name, err)
		}
		return res, nil
	}

	obj := action.Document(e.newID(), "agent", e.now())
	res.ObjectID = obj.ID
	return res, &obj
}

func (e *Executor) mutate(ctx context.Context, canvasID string, action canvas.Action, res *ActionResult) error {
	objectID, _ := action.Params["objectId"].(string)
	if objectID == "" {
		return fmt.Errorf("missing objectId")
	}
	res.ObjectID = objectID

	ok, err := e.store.Exists(ctx, canvasID, objectID)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", objectID, err)
	}
	if !ok {
		return fmt.Errorf("object %s not found on canvas %s", objectID, canvasID)
	}

	fields := mutationFields(action)
	if len(fields) == 0 {
		return fmt.Errorf("no fields to change")
	}
	fields["lastEditedAt"] = e.now().UTC().Format(time.RFC3339)

	if err := e.store.Update(ctx, canvasID, objectID, fields); err != nil {
		return err
	}
	if e.live != nil {
		e.live.Update(canvasID, objectID, fields)
	}
	return nil
}

// mutationFields picks the writable fields for each mutation kind. resize
// accepts whatever dimensions the model supplied; width/height for boxes,
// radius for circles.
func mutationFields(action canvas.Action) map[string]any {
	fields := make(map[string]any)
	pick := func(keys ...string) {
		for _, k := range keys {
			if v, ok := action.Params[k]; ok && v != nil {
				fields[k] = v
			}
		}
	}
	switch action.Kind {
	case canvas.KindMove:
		pick("x", "y")
	case canvas.KindResize:
		pick("width", "height", "radius")
	case canvas.KindColor:
		pick("fill")
	case canvas.KindRotate:
		pick("rotation")
	}
	return fields
}

func (e *Executor) announceCreate(canvasID string, obj canvas.Object) {
	if e.live == nil {
		return
	}
	fields := make(map[string]any)
	for _, k := range []string{"type", "x", "y", "width", "height", "radius", "rotation"} {
		if v, ok := obj.Fields[k]; ok {
			fields[k] = v
		}
	}
	e.live.Set(canvasID, obj.ID, fields)
}
