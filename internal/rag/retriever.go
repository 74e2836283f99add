package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/models"
)

// Retrieve returns the rag.top_k stored chunks most similar to question,
// most similar first.
func (r *RAG) Retrieve(ctx context.Context, question string) ([]models.SearchResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, models.ErrEmptyQuestion
	}

	manifest, err := r.store.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.checkManifest(manifest); err != nil {
		return nil, err
	}

	embedCtx, cancel := r.withTimeout(ctx)
	vector, err := r.embedder.EmbedQuery(embedCtx, question)
	cancel()
	if err != nil {
		return nil, &models.ServiceError{Service: "embedding", Model: r.cfg.EmbedLLM.Model, Err: err}
	}
	if manifest.Dimension > 0 && len(vector) != manifest.Dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index has %d",
			models.ErrIndexMismatch, len(vector), manifest.Dimension)
	}

	k := r.cfg.RAG.TopK
	if manifest.ChunkCount > 0 {
		k = min(k, manifest.ChunkCount)
	}
	results, err := r.store.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("k", k).Int("results", len(results)).Str("build_id", manifest.BuildID).Msg("Retrieved chunks")
	return results, nil
}

func (r *RAG) checkManifest(manifest *models.IndexManifest) error {
	embed := r.cfg.EmbedLLM
	if manifest.EmbeddingModel != embed.Model || (manifest.Provider != "" && manifest.Provider != embed.Provider) {
		return fmt.Errorf("%w: index built with %s/%s, configured %s/%s",
			models.ErrIndexMismatch, manifest.Provider, manifest.EmbeddingModel, embed.Provider, embed.Model)
	}
	return nil
}
