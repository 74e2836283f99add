package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/schema"

	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/models"
)

// Answer stuffs the retrieved chunks into the answer prompt and asks the
// generation model once.
func (r *RAG) Answer(ctx context.Context, question string, results []models.SearchResult) (string, error) {
	docs := make([]schema.Document, len(results))
	for i, res := range results {
		docs[i] = schema.Document{
			PageContent: res.Content,
			Metadata:    map[string]any{"chunk_id": res.ChunkID},
			Score:       res.Similarity,
		}
	}

	if r.cfg.RAG.CountTokens {
		r.logPromptTokens(docs, question)
	}

	callCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	out, err := chains.Call(callCtx, r.chain, map[string]any{
		"input_documents": docs,
		"question":        question,
	}, chains.WithTemperature(r.cfg.InferenceLLM.Temperature))
	if err != nil {
		return "", &models.ServiceError{Service: "generation", Model: r.cfg.InferenceLLM.Model, Err: err}
	}

	text, ok := out["text"].(string)
	if !ok {
		return "", &models.ServiceError{
			Service: "generation",
			Model:   r.cfg.InferenceLLM.Model,
			Err:     fmt.Errorf("unexpected chain output %T", out["text"]),
		}
	}
	return text, nil
}

func (r *RAG) logPromptTokens(docs []schema.Document, question string) {
	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.PageContent
	}
	prompt, err := r.prompt.Format(map[string]any{
		"context":  strings.Join(contents, models.ContextSeparator),
		"question": question,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to render prompt for token count")
		return
	}
	tokens, err := llmservice.CountTokens(prompt)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count prompt tokens")
		return
	}
	log.Info().Int("tokens", tokens).Int("chunks", len(docs)).Msg("Prompt size")
}
