package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/sjson"
	_ "modernc.org/sqlite"

	"github.com/drawspace-ai/canvasd/internal/canvas"
)

// SQLiteStore keeps object documents as JSON rows in a local sqlite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS objects (
			canvas_id TEXT NOT NULL,
			object_id TEXT NOT NULL,
			doc TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (canvas_id, object_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_objects_canvas ON objects(canvas_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Exists(ctx context.Context, canvasID, objectID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM objects WHERE canvas_id = ? AND object_id = ?`,
		canvasID, objectID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", canvasID, objectID, err)
	}
	return true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, canvasID string, obj canvas.Object) error {
	doc, err := json.Marshal(obj.Fields)
	if err != nil {
		return fmt.Errorf("encode object %s: %w", obj.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO objects (canvas_id, object_id, doc) VALUES (?, ?, ?)
		 ON CONFLICT (canvas_id, object_id) DO UPDATE SET doc = excluded.doc, updated_at = datetime('now')`,
		canvasID, obj.ID, string(doc))
	if err != nil {
		return fmt.Errorf("put object %s: %w", obj.ID, err)
	}
	return nil
}

func (s *SQLiteStore) BatchWrite(ctx context.Context, canvasID string, objs []canvas.Object) error {
	if len(objs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO objects (canvas_id, object_id, doc) VALUES (?, ?, ?)
		 ON CONFLICT (canvas_id, object_id) DO UPDATE SET doc = excluded.doc, updated_at = datetime('now')`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, obj := range objs {
		doc, err := json.Marshal(obj.Fields)
		if err != nil {
			return fmt.Errorf("encode object %s: %w", obj.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, canvasID, obj.ID, string(doc)); err != nil {
			return fmt.Errorf("batch write object %s: %w", obj.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, canvasID, objectID string, fields map[string]any) error {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM objects WHERE canvas_id = ? AND object_id = ?`,
		canvasID, objectID).Scan(&doc)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, canvasID, objectID)
	}
	if err != nil {
		return fmt.Errorf("load object %s: %w", objectID, err)
	}

	for k, v := range fields {
		doc, err = sjson.Set(doc, k, v)
		if err != nil {
			return fmt.Errorf("merge field %q into %s: %w", k, objectID, err)
		}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE objects SET doc = ?, updated_at = datetime('now')
		 WHERE canvas_id = ? AND object_id = ?`,
		doc, canvasID, objectID)
	if err != nil {
		return fmt.Errorf("update object %s: %w", objectID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, canvasID, objectID)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, canvasID, objectID string) (canvas.Object, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM objects WHERE canvas_id = ? AND object_id = ?`,
		canvasID, objectID).Scan(&doc)
	if err == sql.ErrNoRows {
		return canvas.Object{}, fmt.Errorf("%w: %s/%s", ErrNotFound, canvasID, objectID)
	}
	if err != nil {
		return canvas.Object{}, fmt.Errorf("get object %s: %w", objectID, err)
	}
	return decodeObject(objectID, doc)
}

func (s *SQLiteStore) List(ctx context.Context, canvasID string) ([]canvas.Object, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT object_id, doc FROM objects WHERE canvas_id = ? ORDER BY created_at, object_id`,
		canvasID)
	if err != nil {
		return nil, fmt.Errorf("list canvas %s: %w", canvasID, err)
	}
	defer rows.Close()

	var objs []canvas.Object
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan object row: %w", err)
		}
		obj, err := decodeObject(id, doc)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context, canvasID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM objects WHERE canvas_id = ?`, canvasID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count canvas %s: %w", canvasID, err)
	}
	return n, nil
}

func decodeObject(id, doc string) (canvas.Object, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(doc), &fields); err != nil {
		return canvas.Object{}, fmt.Errorf("decode object %s: %w", id, err)
	}
	return canvas.Object{ID: id, Fields: fields}, nil
}

var _ Store = (*SQLiteStore)(nil)
