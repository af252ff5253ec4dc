package chatnode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	statex "github.com/pattarin-dev/shopflow/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID string
	Text      string
	ImageRef  string
}

type GraphOutput struct {
	Reply       string
	Suggestions []contractx.Product
	Pending     *contractx.PendingAction
}

type GraphState struct {
	SessionID string
	Text      string
	ImageRef  string
	Now       time.Time

	Session *statex.Session
	Cart    contractx.Cart
	Verdict contractx.ClassifyResult
	Apology bool

	Suggestions []contractx.Product
	Pending     *contractx.PendingAction
	Message     string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		ImageRef:  strings.TrimSpace(in.ImageRef),
		Now:       nowFn().UTC(),
	}, nil
}
