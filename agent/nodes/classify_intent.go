package chatnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
)

const transcriptWindow = 12

const classifierApology = "Sorry, something went wrong on my side while reading that. Could you try again in a moment?"

// ClassifyIntent never fails the turn. A classifier outage degrades to an
// apologetic reply so the transcript still records both sides.
func ClassifyIntent(
	ctx context.Context,
	in *GraphState,
	classifier contractx.Classifier,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	verdict, err := classifier.Classify(ctx, contractx.ClassifyRequest{
		Message:    in.Text,
		ImageRef:   in.ImageRef,
		Transcript: in.Session.TranscriptTail(transcriptWindow),
		Cart:       in.Cart,
		Pending:    in.Session.Pending,
		Now:        in.Now,
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("classifier failed, degrading to apology")
		in.Apology = true
		in.Message = classifierApology
		return in, nil
	}

	in.Verdict = verdict
	return in, nil
}
