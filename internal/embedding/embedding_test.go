package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/embeddings"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

type fakeEmbedder struct {
	vectors [][]float32
	err     error
	texts   []string
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.texts = texts
	return f.vectors, f.err
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return nil, f.err
}

var _ embeddings.Embedder = (*fakeEmbedder)(nil)

func chunks(contents ...string) []models.Chunk {
	out := make([]models.Chunk, len(contents))
	for i, c := range contents {
		out[i] = models.Chunk{ChunkID: i + 1, Content: c}
	}
	return out
}

func TestGenerateEmbeddings(t *testing.T) {
	f := &fakeEmbedder{vectors: [][]float32{{1, 0}, {0, 1}}}
	got, err := GenerateEmbeddings(context.Background(), f, chunks("alpha", "beta"))
	if err != nil {
		t.Fatalf("GenerateEmbeddings() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].ChunkID != 2 || got[1].Content != "beta" || got[1].Embedding[1] != 1 {
		t.Errorf("got[1] = %+v", got[1])
	}
	if strings.Join(f.texts, ",") != "alpha,beta" {
		t.Errorf("embedded texts = %v", f.texts)
	}
}

func TestGenerateEmbeddings_Empty(t *testing.T) {
	got, err := GenerateEmbeddings(context.Background(), &fakeEmbedder{}, nil)
	if err != nil || got != nil {
		t.Errorf("GenerateEmbeddings(nil) = %v, %v, want nil, nil", got, err)
	}
}

func TestGenerateEmbeddings_Failures(t *testing.T) {
	cause := errors.New("503")
	tests := []struct {
		name string
		f    *fakeEmbedder
	}{
		{"service error", &fakeEmbedder{err: cause}},
		{"short response", &fakeEmbedder{vectors: [][]float32{{1}}}},
		{"empty vector", &fakeEmbedder{vectors: [][]float32{{1}, {}}}},
		{"dimension change", &fakeEmbedder{vectors: [][]float32{{1, 2}, {1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GenerateEmbeddings(context.Background(), tt.f, chunks("a", "b")); err == nil {
				t.Error("GenerateEmbeddings() should fail")
			}
		})
	}
}

func TestNewEmbedder(t *testing.T) {
	cfg := config.LLMConfig{Provider: config.ProviderOllama, BaseURL: "http://127.0.0.1:11434", Model: "nomic-embed-text"}
	e, err := NewEmbedder(context.Background(), cfg, 8)
	if err != nil {
		t.Fatalf("NewEmbedder() failed: %v", err)
	}
	if e.BatchSize != 8 {
		t.Errorf("BatchSize = %d, want 8", e.BatchSize)
	}

	if _, err := NewEmbedder(context.Background(), config.LLMConfig{Provider: "nope"}, 0); !errors.Is(err, models.ErrConfig) {
		t.Errorf("NewEmbedder() = %v, want ErrConfig", err)
	}
}
