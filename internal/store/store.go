// Package store persists canvas object documents. Creations arrive either
// one at a time (streaming requests) or as an atomic batch (blocking
// requests); mutations always merge into an existing document.
package store

import (
	"context"
	"errors"

	"github.com/drawspace-ai/canvasd/internal/canvas"
)

// ErrNotFound: the object does not exist on the canvas.
var ErrNotFound = errors.New("store: object not found")

// Store is the document backend for canvas objects.
type Store interface {
	// Exists reports whether objectID is present on canvasID.
	Exists(ctx context.Context, canvasID, objectID string) (bool, error)

	// Put writes one object document immediately.
	Put(ctx context.Context, canvasID string, obj canvas.Object) error

	// BatchWrite commits all objects in one transaction. On failure
	// nothing is written.
	BatchWrite(ctx context.Context, canvasID string, objs []canvas.Object) error

	// Update merges fields into an existing document. Returns ErrNotFound
	// when the object does not exist.
	Update(ctx context.Context, canvasID, objectID string, fields map[string]any) error

	// Get fetches one document. Returns ErrNotFound when absent.
	Get(ctx context.Context, canvasID, objectID string) (canvas.Object, error)

	// List returns every object on the canvas in creation order.
	List(ctx context.Context, canvasID string) ([]canvas.Object, error)

	// Count returns the number of objects on the canvas.
	Count(ctx context.Context, canvasID string) (int, error)

	Close() error
}
