package state

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(MemoryConfig{})
	ctx := context.Background()

	sess := NewSession("s1", time.Now())
	sess.Append(contractx.Message{ID: "m1", Role: contractx.RoleUser, Content: "hello"})

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.SessionID != "s1" || len(loaded.Transcript) != 1 {
		t.Fatalf("unexpected session: %#v", loaded)
	}

	// Loads hand out copies: mutating one must not affect the stored value.
	loaded.Transcript = append(loaded.Transcript, contractx.Message{ID: "m2", Role: contractx.RoleAssistant})
	again, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(again.Transcript) != 1 {
		t.Fatalf("stored session mutated through a loaded copy: %d messages", len(again.Transcript))
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(MemoryConfig{})
	if _, err := store.Load(context.Background(), "missing"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(MemoryConfig{})
	ctx := context.Background()

	if err := store.Save(ctx, NewSession("s1", time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(MemoryConfig{Capacity: 10, TTL: 20 * time.Millisecond})
	ctx := context.Background()

	if err := store.Save(ctx, NewSession("s1", time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	time.Sleep(60 * time.Millisecond)

	if _, err := store.Load(ctx, "s1"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
}
