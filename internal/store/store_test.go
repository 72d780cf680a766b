package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rulesfoundation/rac/internal/engine"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"runs", "scalars", "results"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteRun_ReadResult_Roundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	original := &engine.Result{
		Scalars: engine.Bindings{
			"gov.threshold": 15000,
			"gov.rate":      0.34,
		},
		Rows: []engine.Bindings{
			{"age": 30, "is_adult": 1},
			{"age": 12, "is_adult": 0},
			{"age": 70, "is_adult": 1},
		},
	}
	run := Run{
		ID:       "run-1",
		PlanHash: "abc123",
		Entity:   "person",
		AsOf:     "2024-01-01",
	}

	if err := s.WriteRun(ctx, run, original); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	got, err := s.ReadResult(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadResult() failed: %v", err)
	}

	if len(got.Scalars) != len(original.Scalars) {
		t.Fatalf("got %d scalars, want %d", len(got.Scalars), len(original.Scalars))
	}
	for path, want := range original.Scalars {
		if got.Scalars[path] != want {
			t.Errorf("scalar %s = %v, want %v", path, got.Scalars[path], want)
		}
	}

	if len(got.Rows) != len(original.Rows) {
		t.Fatalf("got %d rows, want %d", len(got.Rows), len(original.Rows))
	}
	for i, wantRow := range original.Rows {
		for path, want := range wantRow {
			if got.Rows[i][path] != want {
				t.Errorf("row %d path %s = %v, want %v", i, path, got.Rows[i][path], want)
			}
		}
	}
}

func TestWriteRun_DuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	result := &engine.Result{Scalars: engine.Bindings{}, Rows: nil}

	if err := s.WriteRun(ctx, Run{ID: "dup"}, result); err != nil {
		t.Fatalf("first WriteRun() failed: %v", err)
	}
	if err := s.WriteRun(ctx, Run{ID: "dup"}, result); err == nil {
		t.Error("expected error for duplicate run ID, got nil")
	}
}

func TestReadRun_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestReadRun_Metadata(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	result := &engine.Result{
		Scalars: engine.Bindings{"x": 1},
		Rows:    []engine.Bindings{{"y": 2}, {"y": 3}},
	}
	run := Run{ID: "run-meta", PlanHash: "hash", Entity: "household", AsOf: "2023-06-15"}
	if err := s.WriteRun(ctx, run, result); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	got, err := s.ReadRun(ctx, "run-meta")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.PlanHash != "hash" || got.Entity != "household" || got.AsOf != "2023-06-15" {
		t.Errorf("unexpected metadata: %+v", got)
	}
	if got.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", got.RowCount)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt was not recorded")
	}
}

func TestListRuns_Empty(t *testing.T) {
	s := openTestStore(t)

	runs, err := s.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestListRuns_ReturnsAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	result := &engine.Result{Scalars: engine.Bindings{}, Rows: nil}

	for _, id := range []string{"a", "b", "c"} {
		if err := s.WriteRun(ctx, Run{ID: id}, result); err != nil {
			t.Fatalf("WriteRun(%s) failed: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
}

func TestFixedSource_ReturnsIDsInOrder(t *testing.T) {
	src := NewFixedSource("one", "two")

	if got := src.NewRunID(); got != "one" {
		t.Errorf("first ID = %q, want %q", got, "one")
	}
	if got := src.NewRunID(); got != "two" {
		t.Errorf("second ID = %q, want %q", got, "two")
	}
}

func TestFixedSource_PanicsWhenExhausted(t *testing.T) {
	src := NewFixedSource("only")
	src.NewRunID()

	defer func() {
		if recover() == nil {
			t.Error("expected panic when exhausted")
		}
	}()
	src.NewRunID()
}

func TestUUIDv7Source_UniqueIDs(t *testing.T) {
	var src UUIDv7Source
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := src.NewRunID()
		if seen[id] {
			t.Fatalf("duplicate run ID %q", id)
		}
		seen[id] = true
	}
}
