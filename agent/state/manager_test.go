package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(NewMemoryStore(MemoryConfig{}))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestManagerSetPendingConflict(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	if err := m.SetPending(ctx, "s1", testAction("s1")); err != nil {
		t.Fatalf("SetPending() error = %v", err)
	}

	err := m.SetPending(ctx, "s1", testAction("s1"))
	if !errors.Is(err, contractx.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The first proposal must remain confirmable.
	action, err := m.TakePending(ctx, "s1")
	if err != nil {
		t.Fatalf("TakePending() error = %v", err)
	}
	if action.ID != "act-1" {
		t.Fatalf("unexpected action id %q", action.ID)
	}
}

func TestManagerTakePendingNotFound(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	_, err := m.TakePending(context.Background(), "s1")
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestManagerTakePendingAtMostOnce(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()
	if err := m.SetPending(ctx, "s1", testAction("s1")); err != nil {
		t.Fatalf("SetPending() error = %v", err)
	}

	const workers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := m.TakePending(ctx, "s1"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one successful take, got %d", wins)
	}
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	const sessions = 8
	var wg sync.WaitGroup
	wg.Add(sessions)
	for i := 0; i < sessions; i++ {
		id := string(rune('a' + i))
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := m.AppendMessage(ctx, id, contractx.Message{
					ID:   "m",
					Role: contractx.RoleUser,
				}); err != nil {
					t.Errorf("AppendMessage(%s) error = %v", id, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for i := 0; i < sessions; i++ {
		id := string(rune('a' + i))
		sess, err := m.GetOrCreate(ctx, id)
		if err != nil {
			t.Fatalf("GetOrCreate(%s) error = %v", id, err)
		}
		if len(sess.Transcript) != 20 {
			t.Fatalf("session %s: expected 20 messages, got %d", id, len(sess.Transcript))
		}
	}
}

func TestManagerUpdateRejectsEmptySession(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	_, err := m.Update(context.Background(), "  ", nil)
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestManagerClock(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m, err := NewManager(NewMemoryStore(MemoryConfig{}), WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	sess, err := m.GetOrCreate(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !sess.CreatedAt.Equal(fixed) || !sess.UpdatedAt.Equal(fixed) {
		t.Fatalf("expected fixed timestamps, got created=%v updated=%v", sess.CreatedAt, sess.UpdatedAt)
	}
}
