package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
)

// Manager linearizes all operations for a given session id with a per-key
// mutex. Two concurrent requests on the same session never interleave their
// read-modify-write of the transcript or pending action; sessions are
// independent and never block each other.
type Manager struct {
	store Store
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type ManagerOption func(*Manager)

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(store Store, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	m := &Manager{
		store: store,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

func (m *Manager) lockFor(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[sessionID] = lock
	}
	return lock
}

// Update runs fn against the session under its lock, creating the session
// lazily for an unseen id, and persists the result. It is the single
// read-modify-write primitive every other operation builds on.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*Session) error) (*Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is empty", contractx.ErrValidation)
	}

	lock := m.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	st, err := m.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if fn != nil {
		if err := fn(st); err != nil {
			return nil, err
		}
	}

	st.Touch(m.now())
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if err := m.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("%w: save session: %v", contractx.ErrUpstream, err)
	}
	return st, nil
}

func (m *Manager) loadOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	st, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, ErrStateNotFound) {
		return nil, fmt.Errorf("%w: load session: %v", contractx.ErrUpstream, err)
	}
	return NewSession(sessionID, m.now()), nil
}

// GetOrCreate returns the session, creating and persisting it lazily.
func (m *Manager) GetOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	return m.Update(ctx, sessionID, nil)
}

func (m *Manager) AppendMessage(ctx context.Context, sessionID string, msg contractx.Message) error {
	_, err := m.Update(ctx, sessionID, func(st *Session) error {
		st.Append(msg)
		return nil
	})
	return err
}

// SetPending installs a pending action; Conflict if one already exists.
func (m *Manager) SetPending(ctx context.Context, sessionID string, action *contractx.PendingAction) error {
	_, err := m.Update(ctx, sessionID, func(st *Session) error {
		if err := st.SetPending(action); err != nil {
			if errors.Is(err, ErrPendingExists) {
				return fmt.Errorf("%w: a pending action already awaits confirmation", contractx.ErrConflict)
			}
			return fmt.Errorf("%w: %v", contractx.ErrValidation, err)
		}
		return nil
	})
	return err
}

// TakePending atomically removes and returns the pending action, so that a
// confirmation can never execute it more than once. NotFound when nothing
// is pending.
func (m *Manager) TakePending(ctx context.Context, sessionID string) (*contractx.PendingAction, error) {
	var taken *contractx.PendingAction
	_, err := m.Update(ctx, sessionID, func(st *Session) error {
		action, err := st.TakePending()
		if err != nil {
			return fmt.Errorf("%w: no pending action to resolve", contractx.ErrNotFound)
		}
		taken = action
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taken, nil
}

func (m *Manager) ClearPending(ctx context.Context, sessionID string) error {
	_, err := m.Update(ctx, sessionID, func(st *Session) error {
		st.Pending = nil
		return nil
	})
	return err
}

func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	lock := m.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()
	return m.store.Delete(ctx, sessionID)
}
