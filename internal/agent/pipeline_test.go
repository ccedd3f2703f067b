package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drawspace-ai/canvasd/internal/canvas"
	"github.com/drawspace-ai/canvasd/internal/llm"
	"github.com/drawspace-ai/canvasd/internal/store"
)

// brokenStore fails every write; reads report nothing stored.
type brokenStore struct{ err error }

func (b *brokenStore) Exists(context.Context, string, string) (bool, error) { return false, nil }
func (b *brokenStore) Put(context.Context, string, canvas.Object) error     { return b.err }
func (b *brokenStore) BatchWrite(context.Context, string, []canvas.Object) error {
	return b.err
}
func (b *brokenStore) Update(context.Context, string, string, map[string]any) error {
	return b.err
}
func (b *brokenStore) Get(context.Context, string, string) (canvas.Object, error) {
	return canvas.Object{}, store.ErrNotFound
}
func (b *brokenStore) List(context.Context, string) ([]canvas.Object, error) { return nil, nil }
func (b *brokenStore) Count(context.Context, string) (int, error)            { return 0, nil }
func (b *brokenStore) Close() error                                          { return nil }

func testExecutor(t *testing.T, st store.Store) *Executor {
	t.Helper()
	registry := canvas.DefaultRegistry()
	if err := registry.Validate(); err != nil {
		t.Fatalf("registry: %v", err)
	}
	e := NewExecutor(registry, st, nil)
	e.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestBatchCommitFailureDowngradesStagedCreations(t *testing.T) {
	e := testExecutor(t, &brokenStore{err: errors.New("disk full")})

	calls := []llm.Call{
		{ID: "c1", Name: "create_circle", Args: map[string]any{"x": float64(1), "y": float64(1), "radius": float64(1)}},
		{ID: "c2", Name: "create_circle", Args: map[string]any{"x": float64(2), "y": float64(2), "radius": float64(2)}},
	}
	results := e.ExecuteBatch(context.Background(), "cv", calls)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Status != StatusFailed {
			t.Fatalf("result %d: expected failed, got %+v", i, r)
		}
		if r.ObjectID != "" {
			t.Fatalf("result %d: failed creation must not report an id", i)
		}
	}
}

func TestSchemaViolationFailsOnlyThatAction(t *testing.T) {
	e := testExecutor(t, &brokenStore{err: errors.New("unused")})

	calls := []llm.Call{
		// radius missing: schema violation.
		{ID: "c1", Name: "create_circle", Args: map[string]any{"x": float64(1), "y": float64(1)}},
	}
	results := e.ExecuteBatch(context.Background(), "cv", calls)
	if results[0].Status != StatusFailed {
		t.Fatalf("expected schema failure, got %+v", results[0])
	}
}

func TestMutationOnMissingObjectFails(t *testing.T) {
	e := testExecutor(t, &brokenStore{err: errors.New("unused")})

	calls := []llm.Call{
		{ID: "m1", Name: "move_object", Args: map[string]any{"objectId": "ghost", "x": float64(1), "y": float64(2)}},
	}
	results := e.ExecuteBatch(context.Background(), "cv", calls)
	if results[0].Status != StatusFailed {
		t.Fatalf("expected failure, got %+v", results[0])
	}
	if results[0].ObjectID != "ghost" {
		t.Fatalf("result should name the target object: %+v", results[0])
	}
}
