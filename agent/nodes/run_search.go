package chatnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	toolx "github.com/pattarin-dev/shopflow/agent/tool"
)

const searchApology = "Sorry, I couldn't reach the product catalog just now. Please try again in a moment."

// RunSearch serves informational queries. Catalog failures degrade to an
// apology; a reply writer failure falls back to a templated summary.
func RunSearch(
	ctx context.Context,
	in *GraphState,
	tools contractx.ToolGateway,
	writer contractx.ReplyWriter,
	maxSuggestions int,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	res, err := tools.Execute(ctx, contractx.ToolRequest{
		Tool: toolx.ToolCatalogSearch,
		Args: map[string]any{
			"query":     in.Verdict.Query,
			"filters":   in.Verdict.Filters,
			"page_size": maxSuggestions,
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("catalog search failed, degrading to apology")
		in.Apology = true
		in.Message = searchApology
		return in, nil
	}

	out, ok := res.Result.(toolx.SearchOutput)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected search result type %T", contractx.ErrValidation, res.Result)
	}

	suggestions := out.Products
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	in.Suggestions = suggestions

	if len(suggestions) == 0 {
		in.Message = fmt.Sprintf("I couldn't find anything matching %q. Could you try different wording, or tell me a price range or category?", in.Verdict.Query)
		return in, nil
	}

	reply, err := writer.Write(ctx, contractx.ReplyRequest{
		Message:     in.Text,
		Suggestions: suggestions,
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("reply writer failed, using templated summary")
		in.Message = templatedSummary(suggestions, out.Total)
		return in, nil
	}

	in.Message = reply
	return in, nil
}

func templatedSummary(products []contractx.Product, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d matching product(s):\n", total)
	for _, p := range products {
		fmt.Fprintf(&b, "- %s ($%.2f)\n", p.Name, p.Price)
	}
	b.WriteString("Want details on any of these, or should I add one to your cart?")
	return b.String()
}
