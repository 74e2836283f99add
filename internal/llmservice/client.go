package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

// NewChatModel connects to the generation model described by llmConfig.
func NewChatModel(ctx context.Context, llmConfig config.LLMConfig) (llms.Model, error) {
	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("base_url", llmConfig.BaseURL).
		Str("model", llmConfig.Model).
		Msg("Creating chat model")

	switch llmConfig.Provider {
	case config.ProviderGoogleAI:
		return googleai.New(ctx,
			googleai.WithAPIKey(llmConfig.APIKey()),
			googleai.WithDefaultModel(llmConfig.Model),
			googleai.WithDefaultTemperature(llmConfig.Temperature),
		)
	case config.ProviderOpenAI:
		return openai.New(openAIOptions(llmConfig, openai.WithModel(llmConfig.Model))...)
	case config.ProviderOllama:
		return ollama.New(ollamaOptions(llmConfig)...)
	default:
		return nil, unknownProvider(llmConfig)
	}
}

// NewEmbeddingClient connects to the embedding model described by llmConfig.
func NewEmbeddingClient(ctx context.Context, llmConfig config.LLMConfig) (embeddings.EmbedderClient, error) {
	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("base_url", llmConfig.BaseURL).
		Str("model", llmConfig.Model).
		Msg("Creating embedding client")

	switch llmConfig.Provider {
	case config.ProviderGoogleAI:
		return googleai.New(ctx,
			googleai.WithAPIKey(llmConfig.APIKey()),
			googleai.WithDefaultEmbeddingModel(llmConfig.Model),
		)
	case config.ProviderOpenAI:
		return openai.New(openAIOptions(llmConfig, openai.WithEmbeddingModel(llmConfig.Model))...)
	case config.ProviderOllama:
		return ollama.New(ollamaOptions(llmConfig)...)
	default:
		return nil, unknownProvider(llmConfig)
	}
}

func openAIOptions(llmConfig config.LLMConfig, extra ...openai.Option) []openai.Option {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(llmConfig.APIKey(), "Bearer ")),
	}
	if llmConfig.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
	}
	return append(opts, extra...)
}

func ollamaOptions(llmConfig config.LLMConfig) []ollama.Option {
	opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
	if llmConfig.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
	}
	return opts
}

func unknownProvider(llmConfig config.LLMConfig) error {
	return &models.ConfigError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", llmConfig.Provider)}
}
