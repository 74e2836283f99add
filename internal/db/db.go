package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pdf-rag/internal/models"
)

const insertBatchSize = 500

// ChunkRecord is one embedded chunk of the current build.
type ChunkRecord struct {
	bun.BaseModel `bun:"table:document_chunks,alias:dc"`
	ID            int64           `bun:"id,pk,autoincrement"`
	BuildID       string          `bun:"build_id,notnull"`
	ChunkID       int             `bun:"chunk_id,notnull"`
	Offset        int             `bun:"char_offset,notnull"`
	Content       string          `bun:"content,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull,type:vector"`
	Similarity    float32         `bun:"similarity,scanonly"`
}

// ManifestRecord stores the models.IndexManifest of the current build.
type ManifestRecord struct {
	bun.BaseModel  `bun:"table:index_manifests,alias:im"`
	BuildID        string    `bun:"build_id,pk"`
	Provider       string    `bun:"provider,notnull"`
	EmbeddingModel string    `bun:"embedding_model,notnull"`
	Dimension      int       `bun:"dimension,notnull"`
	ChunkCount     int       `bun:"chunk_count,notnull"`
	ChunkSize      int       `bun:"chunk_size"`
	ChunkOverlap   int       `bun:"chunk_overlap"`
	Splitter       string    `bun:"splitter"`
	Documents      []string  `bun:"documents,array"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(dsn, password string) *sql.DB {
	opts := []pgdriver.Option{pgdriver.WithDSN(withSSLMode(dsn))}
	if password != "" {
		opts = append(opts, pgdriver.WithPassword(password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...))
}

// withSSLMode disables TLS unless the DSN chooses an sslmode itself.
func withSSLMode(dsn string) string {
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&sslmode=disable"
	}
	return dsn + "?sslmode=disable"
}

// InitDB enables pgvector and creates the index tables.
func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	for _, model := range []interface{}{(*ChunkRecord)(nil), (*ManifestRecord)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// PGVectorStore keeps the chunk index in Postgres. A build replaces the
// previous one inside a single transaction.
type PGVectorStore struct {
	db *bun.DB
}

func NewPGVectorStore(db *bun.DB) *PGVectorStore {
	return &PGVectorStore{db: db}
}

func (s *PGVectorStore) Replace(ctx context.Context, chunks []models.ChunkEmbedding, manifest models.IndexManifest) error {
	if len(chunks) == 0 {
		return models.ErrNoChunks
	}

	records := toChunkRecords(chunks, manifest.BuildID)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*ChunkRecord)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear chunks: %w", err)
		}
		if _, err := tx.NewDelete().Model((*ManifestRecord)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear manifest: %w", err)
		}
		for start := 0; start < len(records); start += insertBatchSize {
			batch := records[start:min(start+insertBatchSize, len(records))]
			if _, err := tx.NewInsert().Model(&batch).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert chunks: %w", err)
			}
		}
		record := toManifestRecord(manifest)
		if _, err := tx.NewInsert().Model(&record).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert manifest: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug().Str("build_id", manifest.BuildID).Int("chunks", len(records)).Msg("Replaced postgres index")
	return nil
}

func (s *PGVectorStore) Manifest(ctx context.Context) (*models.IndexManifest, error) {
	var record ManifestRecord
	err := s.db.NewSelect().Model(&record).OrderExpr("created_at DESC").Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUndefinedTable(err) {
			return nil, models.ErrMissingIndex
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	manifest := record.toManifest()
	return &manifest, nil
}

// Search orders chunks by cosine distance, which matches the chromem backend.
func (s *PGVectorStore) Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	query := pgvector.NewVector(vector)
	var records []ChunkRecord
	err := s.db.NewSelect().
		Model(&records).
		Column("chunk_id", "char_offset", "content").
		ColumnExpr("1 - (embedding <=> ?) AS similarity", query).
		OrderExpr("embedding <=> ?", query).
		Limit(k).
		Scan(ctx)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, models.ErrMissingIndex
		}
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	if len(records) == 0 {
		return nil, models.ErrMissingIndex
	}

	results := make([]models.SearchResult, len(records))
	for i, r := range records {
		results[i] = models.SearchResult{
			Chunk:      models.Chunk{ChunkID: r.ChunkID, Offset: r.Offset, Content: r.Content},
			Similarity: r.Similarity,
		}
	}
	return results, nil
}

func toChunkRecords(chunks []models.ChunkEmbedding, buildID string) []ChunkRecord {
	records := make([]ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = ChunkRecord{
			BuildID:   buildID,
			ChunkID:   c.ChunkID,
			Offset:    c.Offset,
			Content:   c.Content,
			Embedding: pgvector.NewVector(c.Embedding),
		}
	}
	return records
}

func toManifestRecord(m models.IndexManifest) ManifestRecord {
	return ManifestRecord{
		BuildID:        m.BuildID,
		Provider:       m.Provider,
		EmbeddingModel: m.EmbeddingModel,
		Dimension:      m.Dimension,
		ChunkCount:     m.ChunkCount,
		ChunkSize:      m.ChunkSize,
		ChunkOverlap:   m.ChunkOverlap,
		Splitter:       m.Splitter,
		Documents:      m.Documents,
		CreatedAt:      m.CreatedAt,
	}
}

func (r ManifestRecord) toManifest() models.IndexManifest {
	return models.IndexManifest{
		BuildID:        r.BuildID,
		Provider:       r.Provider,
		EmbeddingModel: r.EmbeddingModel,
		Dimension:      r.Dimension,
		ChunkCount:     r.ChunkCount,
		ChunkSize:      r.ChunkSize,
		ChunkOverlap:   r.ChunkOverlap,
		Splitter:       r.Splitter,
		Documents:      r.Documents,
		CreatedAt:      r.CreatedAt,
	}
}

// 42P01 is undefined_table: InitDB was never run against this database.
func isUndefinedTable(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "42P01"
}
