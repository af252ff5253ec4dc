package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	gatex "github.com/pattarin-dev/shopflow/agent/gate"
	nodex "github.com/pattarin-dev/shopflow/agent/nodes"
	statex "github.com/pattarin-dev/shopflow/agent/state"
	toolx "github.com/pattarin-dev/shopflow/agent/tool"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

// Cart operations exposed on the direct REST surface. These skip the
// conversation but not the cart store's validation.
const (
	CartOpAdd    = "add"
	CartOpUpdate = "update"
	CartOpRemove = "remove"
	CartOpClear  = "clear"
)

const (
	defaultMaxSuggestions = 5
	defaultSuccessURL     = "http://localhost:3000/checkout/success"
	defaultCancelURL      = "http://localhost:3000/checkout/cancel"
)

type Config struct {
	MaxSuggestions int
	SuccessURL     string
	CancelURL      string
}

// ChatResult is one assistant turn.
type ChatResult struct {
	SessionID   string                   `json:"session_id"`
	Reply       string                   `json:"reply"`
	Suggestions []contractx.Product      `json:"suggestions,omitempty"`
	Pending     *contractx.PendingAction `json:"pending_action,omitempty"`
}

type Service struct {
	sessions   *statex.Manager
	carts      contractx.CartStore
	catalog    contractx.CatalogGateway
	tools      *toolx.Gateway
	gate       *gatex.Gate
	classifier contractx.Classifier
	writer     contractx.ReplyWriter

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	maxSuggestions   int
	checkoutDefaults nodex.CheckoutDefaults

	now func() time.Time
}

func New(
	sessions *statex.Manager,
	carts contractx.CartStore,
	catalog contractx.CatalogGateway,
	tools *toolx.Gateway,
	gate *gatex.Gate,
	classifier contractx.Classifier,
	writer contractx.ReplyWriter,
	cfg Config,
) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if carts == nil {
		return nil, errors.New("cart store is required")
	}
	if catalog == nil {
		return nil, errors.New("catalog gateway is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if gate == nil {
		return nil, errors.New("confirmation gate is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if writer == nil {
		return nil, errors.New("reply writer is required")
	}

	maxSuggestions := cfg.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = defaultMaxSuggestions
	}
	successURL := strings.TrimSpace(cfg.SuccessURL)
	if successURL == "" {
		successURL = defaultSuccessURL
	}
	cancelURL := strings.TrimSpace(cfg.CancelURL)
	if cancelURL == "" {
		cancelURL = defaultCancelURL
	}

	s := &Service{
		sessions:       sessions,
		carts:          carts,
		catalog:        catalog,
		tools:          tools,
		gate:           gate,
		classifier:     classifier,
		writer:         writer,
		maxSuggestions: maxSuggestions,
		checkoutDefaults: nodex.CheckoutDefaults{
			SuccessURL: successURL,
			CancelURL:  cancelURL,
		},
		now: time.Now,
	}

	graphRunner, err := s.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// HandleMessage runs one conversation turn through the graph.
func (s *Service) HandleMessage(ctx context.Context, sessionID, text, imageRef string) (ChatResult, error) {
	out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
		ImageRef:  imageRef,
	})
	if err != nil {
		return ChatResult{}, err
	}
	return ChatResult{
		SessionID:   strings.TrimSpace(sessionID),
		Reply:       out.Reply,
		Suggestions: out.Suggestions,
		Pending:     out.Pending,
	}, nil
}

// ConfirmAction resolves the session's pending action. The decision and the
// outcome both land in the transcript; a confirm with nothing pending is
// NotFound and leaves the transcript untouched.
func (s *Service) ConfirmAction(ctx context.Context, sessionID string, confirmed bool) (gatex.Resolution, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return gatex.Resolution{}, ErrInvalidSession
	}

	res, err := s.gate.Resolve(ctx, sessionID, confirmed)
	if err != nil {
		return gatex.Resolution{}, err
	}

	now := s.now().UTC()
	decision := "Yes, go ahead."
	if !confirmed {
		decision = "No, cancel that."
	}
	_, terr := s.sessions.Update(ctx, sessionID, func(sess *statex.Session) error {
		sess.Append(s.transcriptMessage(contractx.RoleUser, decision, now))
		sess.Append(s.transcriptMessage(contractx.RoleAssistant, res.Message, now))
		return nil
	})
	if terr != nil {
		return gatex.Resolution{}, fmt.Errorf("record confirmation transcript: %w", terr)
	}

	return res, nil
}

// Cart returns the session's cart snapshot.
func (s *Service) Cart(ctx context.Context, sessionID string) (contractx.Cart, error) {
	return s.carts.Get(ctx, sessionID)
}

// MutateCart serves the direct cart REST surface.
func (s *Service) MutateCart(ctx context.Context, sessionID, op, productID string, quantity int) (contractx.Cart, error) {
	switch op {
	case CartOpAdd:
		return s.tools.CartAdd(ctx, toolx.CartMutateInput{SessionID: sessionID, ProductID: productID, Quantity: quantity})
	case CartOpUpdate:
		return s.tools.CartUpdate(ctx, toolx.CartMutateInput{SessionID: sessionID, ProductID: productID, Quantity: quantity})
	case CartOpRemove:
		return s.tools.CartRemove(ctx, toolx.CartMutateInput{SessionID: sessionID, ProductID: productID})
	case CartOpClear:
		return s.carts.Clear(ctx, sessionID)
	default:
		return contractx.Cart{}, fmt.Errorf("%w: unsupported cart op=%q", contractx.ErrValidation, op)
	}
}

// History returns the session transcript.
func (s *Service) History(ctx context.Context, sessionID string) ([]contractx.Message, error) {
	sess, err := s.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Transcript, nil
}

func (s *Service) transcriptMessage(role contractx.Role, content string, now time.Time) contractx.Message {
	return contractx.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
}
