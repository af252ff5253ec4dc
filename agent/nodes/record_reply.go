package chatnode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	statex "github.com/pattarin-dev/shopflow/agent/state"
)

// RecordReply appends the assistant turn so every exchange, apologies
// included, lands in the transcript.
func RecordReply(ctx context.Context, in *GraphState, sessions *statex.Manager) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("%w: assistant reply is empty", contractx.ErrValidation)
	}

	if err := sessions.AppendMessage(ctx, in.SessionID, newMessage(contractx.RoleAssistant, in.Message, "", in.Now)); err != nil {
		return nil, err
	}
	return in, nil
}

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return GraphOutput{
		Reply:       in.Message,
		Suggestions: in.Suggestions,
		Pending:     in.Pending,
	}, nil
}
