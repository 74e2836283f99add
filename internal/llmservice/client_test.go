package llmservice

import (
	"context"
	"errors"
	"testing"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

func TestNewClients_UnknownProvider(t *testing.T) {
	cfg := config.LLMConfig{Provider: "palm", Model: "text-bison"}

	if _, err := NewChatModel(context.Background(), cfg); !errors.Is(err, models.ErrConfig) {
		t.Errorf("NewChatModel() = %v, want ErrConfig", err)
	}
	if _, err := NewEmbeddingClient(context.Background(), cfg); !errors.Is(err, models.ErrConfig) {
		t.Errorf("NewEmbeddingClient() = %v, want ErrConfig", err)
	}
}

func TestNewClients_OfflineProviders(t *testing.T) {
	tests := []config.LLMConfig{
		{Provider: config.ProviderOpenAI, BaseURL: "http://127.0.0.1:1/v1", Key: "Bearer sk-test", Model: "gpt-4o-mini"},
		{Provider: config.ProviderOllama, BaseURL: "http://127.0.0.1:11434", Model: "llama3"},
	}

	for _, cfg := range tests {
		t.Run(cfg.Provider, func(t *testing.T) {
			chat, err := NewChatModel(context.Background(), cfg)
			if err != nil || chat == nil {
				t.Fatalf("NewChatModel() = %v, %v", chat, err)
			}
			embedder, err := NewEmbeddingClient(context.Background(), cfg)
			if err != nil || embedder == nil {
				t.Fatalf("NewEmbeddingClient() = %v, %v", embedder, err)
			}
		})
	}
}

func TestCountTokens(t *testing.T) {
	n, err := CountTokens("hello world")
	if err != nil {
		t.Skipf("encoding unavailable offline: %v", err)
	}
	if n != 2 {
		t.Errorf("CountTokens() = %d, want 2", n)
	}
}
