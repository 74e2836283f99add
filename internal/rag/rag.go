package rag

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
	"pdf-rag/internal/parser"
)

// VectorStore persists the embedded chunks of the current build.
type VectorStore interface {
	// Replace atomically swaps the whole index for chunks.
	Replace(ctx context.Context, chunks []models.ChunkEmbedding, manifest models.IndexManifest) error
	// Manifest returns models.ErrMissingIndex before the first build.
	Manifest(ctx context.Context) (*models.IndexManifest, error)
	Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error)
}

type TextExtractor interface {
	ExtractText(ctx context.Context, docs []models.Document) (string, error)
}

type RAG struct {
	store     VectorStore
	embedder  embeddings.Embedder
	llm       llms.Model
	extractor TextExtractor
	splitter  parser.Splitter
	prompt    prompts.PromptTemplate
	chain     chains.Chain
	cfg       *config.Config

	// one build at a time
	buildMu sync.Mutex
}

func NewRAG(store VectorStore, embedder embeddings.Embedder, llm llms.Model, cfg *config.Config) (*RAG, error) {
	splitter, err := parser.NewSplitter(cfg.RAG.Splitter, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	prompt := prompts.NewPromptTemplate(models.AnswerPromptTemplate, []string{"context", "question"})
	llmChain := chains.NewLLMChain(llm, prompt)
	llmChain.OutputParser = rawOutput{}
	return &RAG{
		store:     store,
		embedder:  embedder,
		llm:       llm,
		extractor: parser.NewExtractor(cfg.RAG.ValidatePDF),
		splitter:  splitter,
		prompt:    prompt,
		chain:     chains.NewStuffDocuments(llmChain),
		cfg:       cfg,
	}, nil
}

// rawOutput hands the model text back unchanged.
type rawOutput struct{}

func (rawOutput) Parse(text string) (any, error) { return text, nil }

func (p rawOutput) ParseWithPrompt(text string, _ llms.PromptValue) (any, error) {
	return p.Parse(text)
}

func (rawOutput) GetFormatInstructions() string { return "" }

func (rawOutput) Type() string { return "raw_text" }

// Process extracts, splits and indexes docs, replacing the previous index.
func (r *RAG) Process(ctx context.Context, docs []models.Document) (*models.IndexManifest, error) {
	start := time.Now()
	text, err := r.extractor.ExtractText(ctx, docs)
	if err != nil {
		return nil, err
	}
	log.Info().Int("docs", len(docs)).Int("chars", len(text)).Dur("elapsed", time.Since(start)).Msg("Extracted text")

	start = time.Now()
	chunks, err := r.splitter.Split(text)
	if err != nil {
		return nil, err
	}
	log.Info().Int("chunks", len(chunks)).Str("splitter", r.cfg.RAG.Splitter).Dur("elapsed", time.Since(start)).Msg("Split text")

	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Name
	}
	return r.BuildIndex(ctx, chunks, names)
}

// Query answers question from the current index.
func (r *RAG) Query(ctx context.Context, question string) (*models.PromptResponse, error) {
	results, err := r.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	answer, err := r.Answer(ctx, question, results)
	if err != nil {
		return nil, err
	}
	return &models.PromptResponse{Query: question, Sources: results, Content: answer}, nil
}

// Manifest describes the current index.
func (r *RAG) Manifest(ctx context.Context) (*models.IndexManifest, error) {
	return r.store.Manifest(ctx)
}

// withTimeout bounds a single remote call when rag.request_timeout is set.
func (r *RAG) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.RAG.RequestTimeout > 0 {
		return context.WithTimeout(ctx, r.cfg.RAG.RequestTimeout)
	}
	return context.WithCancel(ctx)
}
