package rag

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/embedding"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

// BuildIndex embeds chunks and replaces the stored index with them. Any
// embedding failure aborts the build and leaves the previous index in place,
// as does an empty chunk list.
func (r *RAG) BuildIndex(ctx context.Context, chunks []models.Chunk, documents []string) (*models.IndexManifest, error) {
	if len(chunks) == 0 {
		return nil, models.ErrNoChunks
	}

	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	start := time.Now()
	embedCtx, cancel := r.withTimeout(ctx)
	embedded, err := embedding.GenerateEmbeddings(embedCtx, r.embedder, chunks)
	cancel()
	if err != nil {
		return nil, &models.ServiceError{Service: "embedding", Model: r.cfg.EmbedLLM.Model, Err: err}
	}
	log.Info().Int("chunks", len(embedded)).Dur("elapsed", time.Since(start)).Msg("Embedded chunks")

	buildID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	manifest := models.IndexManifest{
		BuildID:        buildID,
		Provider:       r.cfg.EmbedLLM.Provider,
		EmbeddingModel: r.cfg.EmbedLLM.Model,
		Dimension:      len(embedded[0].Embedding),
		ChunkCount:     len(embedded),
		ChunkSize:      r.cfg.RAG.ChunkSize,
		ChunkOverlap:   r.cfg.RAG.ChunkOverlap,
		Splitter:       r.cfg.RAG.Splitter,
		Documents:      documents,
		CreatedAt:      time.Now().UTC(),
	}

	start = time.Now()
	if err := r.store.Replace(ctx, embedded, manifest); err != nil {
		return nil, err
	}
	log.Info().
		Str("build_id", buildID).
		Int("chunks", manifest.ChunkCount).
		Int("dimension", manifest.Dimension).
		Dur("elapsed", time.Since(start)).
		Msg("Stored index")
	return &manifest, nil
}
