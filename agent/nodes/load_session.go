package chatnode

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	statex "github.com/pattarin-dev/shopflow/agent/state"
)

// LoadSession records the user message in the transcript before anything
// can fail downstream, so a later apology reply still pairs with it.
func LoadSession(
	ctx context.Context,
	in *GraphState,
	sessions *statex.Manager,
	carts contractx.CartStore,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sess, err := sessions.Update(ctx, in.SessionID, func(s *statex.Session) error {
		s.Append(newMessage(contractx.RoleUser, in.Text, in.ImageRef, in.Now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	in.Session = sess

	cart, err := carts.Get(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	in.Cart = cart
	return in, nil
}

func newMessage(role contractx.Role, content, imageRef string, now time.Time) contractx.Message {
	return contractx.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		ImageRef:  imageRef,
		CreatedAt: now,
	}
}
