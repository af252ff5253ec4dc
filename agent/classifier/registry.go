package classifier

import (
	"context"
	"fmt"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	llmx "github.com/pattarin-dev/shopflow/agent/llm"
	promptx "github.com/pattarin-dev/shopflow/agent/prompt"
	openrouterx "github.com/pattarin-dev/shopflow/pkg/openrouter"
)

// New builds the classifier and reply writer off one LLM config, letting
// each role override the default model and temperature.
func New(ctx context.Context, cfg llmx.Config) (contractx.Classifier, contractx.ReplyWriter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	prompts := promptx.LoadPromptSet()

	classifierModelCfg := cfg.OpenRouterFor(llmx.RoleClassifier)
	classifierModel, err := classifierModelCfg.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create classifier model: %v", contractx.ErrModelInvoke, err)
	}
	cls, err := newClassifier(ctx, classifierModel, prompts.Classifier)
	if err != nil {
		return nil, nil, err
	}

	writerModelCfg := cfg.OpenRouterFor(llmx.RoleWriter)
	writerClient := openrouterx.NewClient(writerModelCfg)
	writer := newWriter(writerClient, writerModelCfg.Model, float64(writerModelCfg.Temperature), prompts.Writer)

	return cls, writer, nil
}
