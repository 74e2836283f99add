package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/chromemdb"
	"pdf-rag/internal/config"
	"pdf-rag/internal/db"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/rag"
)

// newPipeline wires the configured vector store and model clients into a
// RAG service. The returned func releases the store.
func newPipeline(ctx context.Context, cfg *config.Config) (*rag.RAG, func(), error) {
	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := embedding.NewEmbedder(ctx, cfg.EmbedLLM, cfg.RAG.EmbedBatchSize)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	llm, err := llmservice.NewChatModel(ctx, cfg.InferenceLLM)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	r, err := rag.NewRAG(store, embedder, llm, cfg)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return r, closeStore, nil
}

func newStore(ctx context.Context, cfg *config.Config) (rag.VectorStore, func(), error) {
	switch cfg.Index.Backend {
	case config.BackendPostgres:
		dbInstance := db.NewDB(db.ConnectDB(cfg.Database.DSN, cfg.Database.Password), cfg.Database.Debug)
		if err := db.InitDB(ctx, dbInstance); err != nil {
			dbInstance.Close()
			return nil, nil, fmt.Errorf("error initializing database: %w", err)
		}
		log.Debug().Msg("Using postgres vector store")
		return db.NewPGVectorStore(dbInstance), func() { dbInstance.Close() }, nil
	default:
		store, err := chromemdb.NewVectorDBManager(cfg.Index.Path, cfg.Index.Compress, cfg.RAG.EncryptionKey)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("path", cfg.Index.Path).Msg("Using chromem vector store")
		return store, func() {}, nil
	}
}
