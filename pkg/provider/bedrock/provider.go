package bedrock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/debug"
	"github.com/avollmer/agentcore-showcase/pkg/observability"
)

// RuntimeAPI is the subset of the Bedrock runtime client the provider uses.
type RuntimeAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
}

// Provider invokes a Bedrock model through the Converse API.
type Provider struct {
	api    RuntimeAPI
	cfg    Config
	logger *slog.Logger

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Provider with the given client and configuration.
func New(apiClient RuntimeAPI, cfg Config, logger *slog.Logger) *Provider {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		api:    apiClient,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Complete sends a single-turn prompt and returns the model's text reply.
func (p *Provider) Complete(ctx context.Context, system, prompt string) (string, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(p.cfg.ModelID),
		Messages:        []brtypes.Message{userMessage(prompt)},
		InferenceConfig: p.inferenceConfig(),
	}
	if system != "" {
		input.System = []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: system},
		}
	}

	start := time.Now()
	var out *bedrockruntime.ConverseOutput
	err := p.withRetry(ctx, "Converse", func() error {
		var callErr error
		out, callErr = p.api.Converse(ctx, input)
		return callErr
	})
	observability.LLMLatency.WithLabelValues(p.cfg.ModelID).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.LLMRequestsTotal.WithLabelValues(p.cfg.ModelID, "error").Inc()
		return "", err
	}
	observability.LLMRequestsTotal.WithLabelValues(p.cfg.ModelID, "ok").Inc()

	text := extractText(out.Output)
	debug.Trace("aws", "converse reply", "model", p.cfg.ModelID, "text", debug.Truncate(text, 500))
	return text, nil
}

// inferenceConfig builds the shared inference settings.
func (p *Provider) inferenceConfig() *brtypes.InferenceConfiguration {
	return &brtypes.InferenceConfiguration{
		MaxTokens:   aws.Int32(p.cfg.MaxTokens),
		Temperature: aws.Float32(p.cfg.Temperature),
	}
}

// userMessage wraps a prompt in a single user turn.
func userMessage(prompt string) brtypes.Message {
	return brtypes.Message{
		Role: brtypes.ConversationRoleUser,
		Content: []brtypes.ContentBlock{
			&brtypes.ContentBlockMemberText{Value: prompt},
		},
	}
}

// extractText concatenates the text blocks of a converse reply.
func extractText(output brtypes.ConverseOutput) string {
	msg, ok := output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String()
}

// withRetry runs call with the throttle retry policy: MaxAttempts tries,
// InitialDelay before the first retry, doubling after each one.
func (p *Provider) withRetry(ctx context.Context, operation string, call func() error) error {
	delay := p.cfg.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		lastErr = call()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return api.NewModelError(fmt.Sprintf("%s failed: %v", operation, lastErr))
		}
		if attempt == p.cfg.MaxAttempts {
			break
		}

		observability.LLMRetriesTotal.Inc()
		p.logger.Warn("model invocation throttled, retrying",
			slog.String("operation", operation),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
		)
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
	}

	return api.NewTooManyRequestsError(
		fmt.Sprintf("%s failed after %d attempts: %v", operation, p.cfg.MaxAttempts, lastErr))
}

// sleepContext sleeps for d, returning early if the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
