package bedrock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/avollmer/agentcore-showcase/pkg/api"
)

// fakeRuntime scripts Converse responses per attempt.
type fakeRuntime struct {
	calls     int
	responses []fakeResponse
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeRuntime) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	resp := f.responses[f.calls]
	f.calls++
	if resp.err != nil {
		return nil, resp.err
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role: brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: resp.text},
				},
			},
		},
	}, nil
}

func (f *fakeRuntime) ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error) {
	return nil, errors.New("not implemented in fake")
}

func throttleErr() error {
	return &smithy.GenericAPIError{Code: "ThrottlingException", Message: "rate exceeded"}
}

func newTestProvider(f *fakeRuntime) (*Provider, *[]time.Duration) {
	p := New(f, Config{ModelID: "test-model"}, nil)
	var slept []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return p, &slept
}

func TestCompleteSuccess(t *testing.T) {
	fake := &fakeRuntime{responses: []fakeResponse{{text: "hello there"}}}
	p, slept := newTestProvider(fake)

	got, err := p.Complete(context.Background(), "be brief", "say hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "hello there" {
		t.Errorf("reply = %q, want %q", got, "hello there")
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1", fake.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("unexpected sleeps: %v", *slept)
	}
}

func TestCompleteRetriesThrottling(t *testing.T) {
	fake := &fakeRuntime{responses: []fakeResponse{
		{err: throttleErr()},
		{err: throttleErr()},
		{text: "finally"},
	}}
	p, slept := newTestProvider(fake)

	got, err := p.Complete(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "finally" {
		t.Errorf("reply = %q, want finally", got)
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}

	// Delays double: 2s then 4s.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Errorf("sleep[%d] = %s, want %s", i, (*slept)[i], want[i])
		}
	}
}

func TestCompleteExhaustsAttempts(t *testing.T) {
	fake := &fakeRuntime{responses: []fakeResponse{
		{err: throttleErr()},
		{err: throttleErr()},
		{err: throttleErr()},
	}}
	p, slept := newTestProvider(fake)

	_, err := p.Complete(context.Background(), "", "prompt")
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeTooManyRequests {
		t.Errorf("expected too_many_requests, got %v", err)
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}
	if len(*slept) != 2 {
		t.Errorf("sleeps = %v, want 2 entries", *slept)
	}
}

func TestCompleteNonRetryableFailsFast(t *testing.T) {
	fake := &fakeRuntime{responses: []fakeResponse{
		{err: &smithy.GenericAPIError{Code: "ValidationException", Message: "bad input"}},
	}}
	p, slept := newTestProvider(fake)

	_, err := p.Complete(context.Background(), "", "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeModelError {
		t.Errorf("expected model_error, got %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries)", fake.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("unexpected sleeps: %v", *slept)
	}
}

func TestCompleteCancelledDuringBackoff(t *testing.T) {
	fake := &fakeRuntime{responses: []fakeResponse{
		{err: throttleErr()},
		{text: "never reached"},
	}}
	p := New(fake, Config{ModelID: "test-model"}, nil)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	_, err := p.Complete(context.Background(), "", "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1", fake.calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "throttling", err: throttleErr(), want: true},
		{name: "service unavailable", err: &smithy.GenericAPIError{Code: "ServiceUnavailableException"}, want: true},
		{name: "lowercase service unavailable", err: &smithy.GenericAPIError{Code: "serviceUnavailableException"}, want: true},
		{name: "validation", err: &smithy.GenericAPIError{Code: "ValidationException"}, want: false},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDeniedException"}, want: false},
		{name: "plain error", err: errors.New("network down"), want: false},
		{name: "nil-ish wrapped", err: errors.New(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
