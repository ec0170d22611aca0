package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

type stubConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (s *stubConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	s.input = in
	return s.out, s.err
}

func TestBedrockLLMClient_Complete(t *testing.T) {
	api := &stubConverse{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: ` {"action":"reply","message":"hi"} `}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{InputTokens: aws.Int32(12), OutputTokens: aws.Int32(5), TotalTokens: aws.Int32(17)},
	}}
	client := NewBedrockLLMClient(api)

	resp, err := client.Complete(context.Background(), LLMRequest{
		Model:       "anthropic.claude-3-haiku",
		System:      []string{"be brief", "  "},
		Messages:    []ChatMessage{{Role: ChatRoleSystem, Content: "extra rule"}, {Role: ChatRoleUser, Content: "hello"}},
		MaxTokens:   256,
		Temperature: -1,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != `{"action":"reply","message":"hi"}` || resp.StopReason != "end_turn" || resp.Usage.TotalTokens != 17 {
		t.Fatalf("unexpected response %#v", resp)
	}
	if len(api.input.System) != 2 || len(api.input.Messages) != 1 {
		t.Fatalf("expected 2 system blocks and 1 message, got %d and %d", len(api.input.System), len(api.input.Messages))
	}
	cfg := api.input.InferenceConfig
	if cfg == nil || aws.ToInt32(cfg.MaxTokens) != 256 || cfg.Temperature != nil {
		t.Fatalf("unexpected inference config %#v", cfg)
	}
}

func TestBedrockLLMClient_Errors(t *testing.T) {
	client := NewBedrockLLMClient(&stubConverse{err: errors.New("throttled")})
	if _, err := client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}}}); err == nil {
		t.Fatalf("expected missing model error")
	}
	if _, err := client.Complete(context.Background(), LLMRequest{Model: "m", Messages: []ChatMessage{{Role: "tool", Content: "x"}}}); err == nil {
		t.Fatalf("expected unsupported role error")
	}
	if _, err := client.Complete(context.Background(), LLMRequest{Model: "m", Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}}}); err == nil {
		t.Fatalf("expected converse error")
	}

	empty := NewBedrockLLMClient(&stubConverse{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{}},
	}})
	if _, err := empty.Complete(context.Background(), LLMRequest{Model: "m", Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}}}); err == nil {
		t.Fatalf("expected empty content error")
	}
}

type scriptedLLM struct {
	errs  []error
	calls int
	block bool
}

func (s *scriptedLLM) Complete(ctx context.Context, _ LLMRequest) (LLMResponse, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return LLMResponse{}, ctx.Err()
	}
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return LLMResponse{}, err
		}
	}
	return LLMResponse{Text: "ok"}, nil
}

type outcomeCounter map[string]int

func (o outcomeCounter) ObserveLLMAttempt(outcome string) { o[outcome]++ }

func TestRetryingLLMClient_RetriesThenSucceeds(t *testing.T) {
	inner := &scriptedLLM{errs: []error{errors.New("503"), errors.New("timeout")}}
	outcomes := outcomeCounter{}
	client := NewRetryingLLMClient(inner, 3, 0, outcomes, logging.Default())

	resp, err := client.Complete(context.Background(), LLMRequest{})
	if err != nil || resp.Text != "ok" {
		t.Fatalf("expected success, got %v %v", resp, err)
	}
	if inner.calls != 3 || outcomes[AttemptError] != 2 || outcomes[AttemptSuccess] != 1 {
		t.Fatalf("unexpected calls %d outcomes %v", inner.calls, outcomes)
	}
}

func TestRetryingLLMClient_GivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("boom")
	inner := &scriptedLLM{errs: []error{boom, boom, boom, boom}}
	outcomes := outcomeCounter{}
	client := NewRetryingLLMClient(inner, 3, 0, outcomes, nil)

	_, err := client.Complete(context.Background(), LLMRequest{})
	if !errors.Is(err, ErrLLMUnavailable) {
		t.Fatalf("expected ErrLLMUnavailable, got %v", err)
	}
	if inner.calls != 3 || outcomes[AttemptExhausted] != 1 {
		t.Fatalf("expected 3 attempts and one exhausted, got %d %v", inner.calls, outcomes)
	}
}

func TestRetryingLLMClient_PerAttemptTimeout(t *testing.T) {
	inner := &scriptedLLM{block: true}
	client := NewRetryingLLMClient(inner, 2, 10*time.Millisecond, nil, nil)

	start := time.Now()
	_, err := client.Complete(context.Background(), LLMRequest{})
	if !errors.Is(err, ErrLLMUnavailable) {
		t.Fatalf("expected ErrLLMUnavailable, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", inner.calls)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("attempts were not bounded")
	}
}

func TestRetryingLLMClient_UnavailableIsNotRetried(t *testing.T) {
	client := NewRetryingLLMClient(UnavailableLLMClient{}, 3, 0, nil, nil)
	if _, err := client.Complete(context.Background(), LLMRequest{}); !errors.Is(err, ErrLLMUnavailable) {
		t.Fatalf("expected ErrLLMUnavailable, got %v", err)
	}
}

func TestFallbackLLMClient(t *testing.T) {
	primary := &scriptedLLM{errs: []error{errors.New("primary down")}}
	fallback := &scriptedLLM{}
	client := NewFallbackLLMClient(primary, fallback, nil)

	resp, err := client.Complete(context.Background(), LLMRequest{})
	if err != nil || resp.Text != "ok" {
		t.Fatalf("expected fallback success, got %v %v", resp, err)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Fatalf("unexpected calls %d %d", primary.calls, fallback.calls)
	}

	solo := NewFallbackLLMClient(&scriptedLLM{errs: []error{errors.New("down")}}, nil, nil)
	if _, err := solo.Complete(context.Background(), LLMRequest{}); err == nil {
		t.Fatalf("expected primary error without fallback")
	}
}

func TestSystemPrompt_IncludesDate(t *testing.T) {
	got := SystemPrompt(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))
	if want := "Today is Wednesday, 2025-03-05."; got[len(got)-len(want):] != want {
		t.Fatalf("expected prompt to end with %q", want)
	}
}
