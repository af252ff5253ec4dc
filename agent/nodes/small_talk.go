package chatnode

import (
	"fmt"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
)

const defaultSmallTalkReply = "Hi there! I'm your shopping assistant. I can help you find products, answer questions about them, and manage your cart."

func SmallTalk(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Message != "" {
		return in, nil
	}
	if in.Verdict.Reply != "" {
		in.Message = in.Verdict.Reply
		return in, nil
	}
	in.Message = defaultSmallTalkReply
	return in, nil
}
