package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	contractx "github.com/pattarin-dev/shopflow/agent/contract"
)

const transcriptWindow = 10

type classifierImpl struct {
	runner compose.Runnable[map[string]any, classifyLLMOutput]
}

type classifyLLMOutput struct {
	Intent     string        `json:"intent"`
	Query      string        `json:"query,omitempty"`
	Filters    filtersOutput `json:"filters,omitempty"`
	Action     string        `json:"action,omitempty"`
	ProductID  string        `json:"product_id,omitempty"`
	Quantity   int           `json:"quantity,omitempty"`
	Email      string        `json:"email,omitempty"`
	SuccessURL string        `json:"success_url,omitempty"`
	CancelURL  string        `json:"cancel_url,omitempty"`
	Reply      string        `json:"reply,omitempty"`
}

type filtersOutput struct {
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Category string   `json:"category,omitempty"`
	Brand    string   `json:"brand,omitempty"`
}

func newClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*classifierImpl, error) {
	runner, err := compileClassifierGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrModelInvoke, err)
	}
	return &classifierImpl{runner: runner}, nil
}

func (c *classifierImpl) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"message":    req.Message,
		"transcript": summarizeTranscript(req.Transcript),
		"cart":       summarizeCart(req.Cart),
	}
	if req.ImageRef != "" {
		payload["image_ref"] = req.ImageRef
	}
	if req.Pending != nil {
		payload["pending_action"] = map[string]any{
			"kind":       string(req.Pending.Kind),
			"created_at": req.Pending.CreatedAt,
		}
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: marshal classifier payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrModelInvoke, err)
	}

	res := contractx.ClassifyResult{
		Intent:     contractx.Intent(strings.TrimSpace(out.Intent)),
		Query:      strings.TrimSpace(out.Query),
		Action:     contractx.ActionKind(strings.TrimSpace(out.Action)),
		ProductID:  strings.TrimSpace(out.ProductID),
		Quantity:   out.Quantity,
		Email:      strings.TrimSpace(out.Email),
		SuccessURL: strings.TrimSpace(out.SuccessURL),
		CancelURL:  strings.TrimSpace(out.CancelURL),
		Reply:      strings.TrimSpace(out.Reply),
	}
	if p := out.Filters.MinPrice; p != nil && *p > 0 {
		res.Filters.MinPrice = p
	}
	if p := out.Filters.MaxPrice; p != nil && *p > 0 {
		res.Filters.MaxPrice = p
	}
	res.Filters.Category = strings.TrimSpace(out.Filters.Category)
	res.Filters.Brand = strings.TrimSpace(out.Filters.Brand)

	if err := validateClassifyResult(&res); err != nil {
		return contractx.ClassifyResult{}, err
	}
	return res, nil
}

func validateClassifyResult(res *contractx.ClassifyResult) error {
	switch res.Intent {
	case contractx.IntentInformational:
		if res.Query == "" {
			return fmt.Errorf("%w: informational verdict missing query", contractx.ErrSchemaViolation)
		}
	case contractx.IntentMutating:
		switch res.Action {
		case contractx.ActionAddToCart:
			if res.ProductID == "" && res.Query == "" {
				return fmt.Errorf("%w: add_to_cart verdict names no product", contractx.ErrSchemaViolation)
			}
			if res.Quantity <= 0 {
				res.Quantity = 1
			}
		case contractx.ActionCheckout:
			// Contact fields are optional; the checkout flow fills defaults.
		default:
			return fmt.Errorf("%w: unsupported action=%q", contractx.ErrSchemaViolation, res.Action)
		}
	case contractx.IntentSmallTalk:
		// An empty reply falls back to a canned greeting downstream.
	default:
		return fmt.Errorf("%w: unsupported intent=%q", contractx.ErrSchemaViolation, res.Intent)
	}
	return nil
}

func summarizeTranscript(msgs []contractx.Message) []map[string]any {
	start := 0
	if len(msgs) > transcriptWindow {
		start = len(msgs) - transcriptWindow
	}
	out := make([]map[string]any, 0, len(msgs)-start)
	for _, m := range msgs[start:] {
		out = append(out, map[string]any{
			"role":    string(m.Role),
			"content": m.Content,
		})
	}
	return out
}

func summarizeCart(cart contractx.Cart) map[string]any {
	items := make([]map[string]any, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, map[string]any{
			"product_id": it.Product.ID,
			"name":       it.Product.Name,
			"quantity":   it.Quantity,
		})
	}
	return map[string]any{
		"items": items,
		"total": cart.Total,
	}
}
