package sqlite

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kiwari-pos/terminal/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "terminal.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "drafts", "bill:1", []byte(`{"items":[]}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "drafts", "bill:1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte(`{"items":[]}`)) {
		t.Fatalf("unexpected value: %s", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "drafts", "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "session", "active_restaurant", []byte("r1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "session", "active_restaurant", []byte("r2")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "session", "active_restaurant")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "r2" {
		t.Fatalf("expected r2, got: %s", got)
	}
}

func TestScopesAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "drafts", "k", []byte("draft")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "session", "k", []byte("session")); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.Get(ctx, "drafts", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "draft" {
		t.Fatalf("scope bleed: %s", got)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "drafts", "bill:1", []byte("x")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Delete(ctx, "drafts", "bill:1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "drafts", "bill:1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got: %v", err)
	}

	// Deleting a missing key is not an error.
	if err := s.Delete(ctx, "drafts", "bill:1"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "drafts", "bill:1", []byte("a")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "drafts", "table:5", []byte("b")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "session", "pin_hash", []byte("c")); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.List(ctx, "drafts")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got: %d", len(got))
	}
	if string(got["bill:1"]) != "a" || string(got["table:5"]) != "b" {
		t.Fatalf("unexpected entries: %v", got)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terminal.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Set(ctx, "session", "pin_hash", []byte("hash")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, "session", "pin_hash")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != "hash" {
		t.Fatalf("expected hash, got: %s", got)
	}
}
