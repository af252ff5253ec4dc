package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrNilSession     = errors.New("session is nil")
	ErrPendingExists  = errors.New("pending action already exists")
	ErrNoPending      = errors.New("no pending action")
)

// Session is the per-conversation source of truth: append-only transcript
// plus at most one pending action. The cart lives in the cart store, keyed
// by the same session id.
type Session struct {
	SessionID  string                   `json:"session_id"`
	Transcript []contractx.Message      `json:"transcript,omitempty"`
	Pending    *contractx.PendingAction `json:"pending,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID: sessionID,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Append adds a message to the transcript. The transcript is append-only;
// nothing ever edits or removes an entry.
func (s *Session) Append(msg contractx.Message) {
	s.Transcript = append(s.Transcript, msg)
}

// SetPending installs a pending action. It fails if one is already present;
// the caller must surface that as a Conflict rather than overwrite.
func (s *Session) SetPending(action *contractx.PendingAction) error {
	if action == nil {
		return fmt.Errorf("pending action is nil")
	}
	if s.Pending != nil {
		return ErrPendingExists
	}
	s.Pending = action
	return nil
}

// TakePending removes and returns the pending action. Confirmation clears
// state before executing, so a retried confirm observes ErrNoPending.
func (s *Session) TakePending() (*contractx.PendingAction, error) {
	if s.Pending == nil {
		return nil, ErrNoPending
	}
	action := s.Pending
	s.Pending = nil
	return action, nil
}

func (s *Session) Validate() error {
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if s.Pending != nil {
		if s.Pending.SessionID != s.SessionID {
			return fmt.Errorf("pending action belongs to session %q, not %q", s.Pending.SessionID, s.SessionID)
		}
		switch s.Pending.Kind {
		case contractx.ActionAddToCart:
			if s.Pending.AddToCart == nil {
				return fmt.Errorf("add_to_cart action is missing its payload")
			}
			if s.Pending.AddToCart.Quantity < 1 {
				return fmt.Errorf("add_to_cart quantity must be >= 1")
			}
		case contractx.ActionCheckout:
			if s.Pending.Checkout == nil {
				return fmt.Errorf("checkout action is missing its payload")
			}
		default:
			return fmt.Errorf("unknown pending action kind %q", s.Pending.Kind)
		}
	}
	for _, msg := range s.Transcript {
		if msg.Role != contractx.RoleUser && msg.Role != contractx.RoleAssistant {
			return fmt.Errorf("transcript message %s has unknown role %q", msg.ID, msg.Role)
		}
	}
	return nil
}

// TranscriptTail returns up to n most recent messages, oldest first.
func (s *Session) TranscriptTail(n int) []contractx.Message {
	if n <= 0 || len(s.Transcript) == 0 {
		return nil
	}
	if len(s.Transcript) <= n {
		return append([]contractx.Message(nil), s.Transcript...)
	}
	return append([]contractx.Message(nil), s.Transcript[len(s.Transcript)-n:]...)
}
