package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/observability"
)

// Stream sends a single-turn prompt and delivers the reply incrementally
// through onDelta. Establishing the stream is retried with the throttle
// policy; once deltas flow, a broken stream is not resumed.
func (p *Provider) Stream(ctx context.Context, system, prompt string, onDelta func(delta string) error) error {
	input := &bedrockruntime.ConverseStreamInput{
		ModelId:         aws.String(p.cfg.ModelID),
		Messages:        []brtypes.Message{userMessage(prompt)},
		InferenceConfig: p.inferenceConfig(),
	}
	if system != "" {
		input.System = []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: system},
		}
	}

	var out *bedrockruntime.ConverseStreamOutput
	err := p.withRetry(ctx, "ConverseStream", func() error {
		var callErr error
		out, callErr = p.api.ConverseStream(ctx, input)
		return callErr
	})
	if err != nil {
		observability.LLMRequestsTotal.WithLabelValues(p.cfg.ModelID, "error").Inc()
		return err
	}

	stream := out.GetStream()
	defer stream.Close()

	for event := range stream.Events() {
		delta, ok := event.(*brtypes.ConverseStreamOutputMemberContentBlockDelta)
		if !ok {
			continue
		}
		text, ok := delta.Value.Delta.(*brtypes.ContentBlockDeltaMemberText)
		if !ok {
			continue
		}
		if err := onDelta(text.Value); err != nil {
			observability.LLMRequestsTotal.WithLabelValues(p.cfg.ModelID, "error").Inc()
			return err
		}
	}

	if err := stream.Err(); err != nil {
		observability.LLMRequestsTotal.WithLabelValues(p.cfg.ModelID, "error").Inc()
		return api.NewModelError(fmt.Sprintf("stream interrupted: %v", err))
	}

	observability.LLMRequestsTotal.WithLabelValues(p.cfg.ModelID, "ok").Inc()
	return nil
}
