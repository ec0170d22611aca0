package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/wolfman30/clinic-scheduling-agent/internal/conversation"
	"github.com/wolfman30/clinic-scheduling-agent/internal/faq"
)

// buildLLM wires the fallback language model named by LLM_PROVIDER. Bedrock falls back to
// Gemini when a Gemini key is also configured. The result is wrapped in the retrying client.
func (b *builder) buildLLM(ctx context.Context) (conversation.LLMClient, string, error) {
	var (
		client conversation.LLMClient
		model  string
	)
	switch b.cfg.LLMProvider {
	case "", "none":
		b.logger.Info("llm fallback disabled")
		return conversation.UnavailableLLMClient{}, "", nil
	case "bedrock":
		api, err := b.bedrock(ctx)
		if err != nil {
			return nil, "", err
		}
		client = conversation.NewBedrockLLMClient(api)
		model = b.cfg.BedrockModelID
		if strings.TrimSpace(b.cfg.GeminiAPIKey) != "" {
			gemini, err := b.gemini(ctx)
			if err != nil {
				return nil, "", err
			}
			client = conversation.NewFallbackLLMClient(client, gemini, b.logger)
		}
	case "gemini":
		gemini, err := b.gemini(ctx)
		if err != nil {
			return nil, "", err
		}
		client = gemini
		model = b.cfg.GeminiModelID
	default:
		return nil, "", fmt.Errorf("bootstrap: unknown llm provider %q", b.cfg.LLMProvider)
	}

	b.logger.Info("llm fallback enabled", "provider", b.cfg.LLMProvider, "model", model, "attempts", b.cfg.LLMMaxAttempts)
	return conversation.NewRetryingLLMClient(client, b.cfg.LLMMaxAttempts, b.cfg.LLMTimeout, b.metrics, b.logger), model, nil
}

func (b *builder) gemini(ctx context.Context) (*conversation.GeminiLLMClient, error) {
	client, err := conversation.NewGeminiLLMClient(ctx, b.cfg.GeminiAPIKey, b.cfg.GeminiModelID)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: gemini client: %w", err)
	}
	b.closers = append(b.closers, func() { _ = client.Close() })
	return client, nil
}

func (b *builder) bedrock(ctx context.Context) (*bedrockruntime.Client, error) {
	if b.bedrockClient != nil {
		return b.bedrockClient, nil
	}
	awsCfg, err := b.aws(ctx)
	if err != nil {
		return nil, err
	}
	b.bedrockClient = bedrockruntime.NewFromConfig(awsCfg)
	return b.bedrockClient, nil
}

// buildFAQ embeds the clinic corpus with Bedrock Titan when configured, else the hashing embedder.
func (b *builder) buildFAQ(ctx context.Context) (*faq.Store, error) {
	var (
		entries []faq.Entry
		err     error
	)
	if path := strings.TrimSpace(b.cfg.FAQFile); path != "" {
		entries, err = faq.LoadCorpus(path)
	} else {
		entries, err = faq.DefaultCorpus()
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load faq corpus: %w", err)
	}

	var embedder faq.Embedder = faq.HashEmbedder{}
	if model := strings.TrimSpace(b.cfg.BedrockEmbeddingModelID); model != "" {
		api, err := b.bedrock(ctx)
		if err != nil {
			return nil, err
		}
		embedder = faq.NewBedrockEmbedder(api, model)
	}
	store, err := faq.NewStore(ctx, entries, embedder, b.logger.Component("faq"))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: build faq store: %w", err)
	}
	return store, nil
}
