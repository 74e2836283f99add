package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

const (
	collectionName = "pdf_chunks"
	currentFile    = "CURRENT"
	indexFile      = "index.chromem"
	manifestFile   = "manifest.yaml"
)

// VectorDBManager keeps the chunk index in a directory. Every build is
// exported to its own sub directory and published by rewriting CURRENT, so a
// reader sees either the old build or the new one, never a mix.
type VectorDBManager struct {
	mu            sync.RWMutex
	dbPath        string
	compress      bool
	encryptionKey string

	loadedBuild string
	collection  *chromem.Collection
}

// NewVectorDBManager creates dbPath if needed. An empty encryptionKey stores
// the index unencrypted.
func NewVectorDBManager(dbPath string, compress bool, encryptionKey string) (*VectorDBManager, error) {
	if dbPath == "" {
		return nil, &models.ConfigError{Field: "index.path", Reason: "is required"}
	}
	if encryptionKey != "" && len(encryptionKey) != 32 {
		return nil, &models.ConfigError{Field: "rag.encryption_key", Reason: "must be 32 bytes long"}
	}
	if err := helper.CreateFolder(dbPath); err != nil {
		return nil, err
	}

	return &VectorDBManager{
		dbPath:        dbPath,
		compress:      compress,
		encryptionKey: encryptionKey,
	}, nil
}

// vectors are always computed before they reach the store
func noEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("documents must be embedded before they are stored")
}

func toDocument(chunk models.ChunkEmbedding) chromem.Document {
	return chromem.Document{
		ID:      fmt.Sprintf("chunk-%06d", chunk.ChunkID),
		Content: chunk.Content,
		Metadata: map[string]string{
			"chunk_id": strconv.Itoa(chunk.ChunkID),
			"offset":   strconv.Itoa(chunk.Offset),
		},
		Embedding: chunk.Embedding,
	}
}

func toSearchResult(r chromem.Result) models.SearchResult {
	chunkID, _ := strconv.Atoi(r.Metadata["chunk_id"])
	offset, _ := strconv.Atoi(r.Metadata["offset"])
	return models.SearchResult{
		Chunk: models.Chunk{
			ChunkID: chunkID,
			Offset:  offset,
			Content: r.Content,
		},
		Similarity: r.Similarity,
	}
}

// Replace stores chunks as a new build and makes it the current index. The
// previous build stays readable until the swap and is removed afterwards.
func (m *VectorDBManager) Replace(ctx context.Context, chunks []models.ChunkEmbedding, manifest models.IndexManifest) (err error) {
	if len(chunks) == 0 {
		return models.ErrNoChunks
	}
	if manifest.BuildID == "" {
		return errors.New("manifest has no build id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	buildDir := filepath.Join(m.dbPath, manifest.BuildID)
	if err := helper.CreateFolder(buildDir); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(buildDir)
		}
	}()

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, map[string]string{
		"embedding_model": manifest.EmbeddingModel,
	}, noEmbedding)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = toDocument(chunk)
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	if err := db.ExportToFile(filepath.Join(buildDir, indexFile), m.compress, m.encryptionKey, collectionName); err != nil {
		return fmt.Errorf("failed to export index: %w", err)
	}
	if err := writeManifest(filepath.Join(buildDir, manifestFile), manifest); err != nil {
		return err
	}
	if err := m.writeCurrent(manifest.BuildID); err != nil {
		return err
	}

	m.loadedBuild = manifest.BuildID
	m.collection = collection
	log.Debug().
		Str("build_id", manifest.BuildID).
		Int("chunks", collection.Count()).
		Str("path", buildDir).
		Msg("Published index build")

	m.removeStaleBuilds(manifest.BuildID)
	return nil
}

// Manifest returns the manifest of the current build, or ErrMissingIndex.
func (m *VectorDBManager) Manifest(_ context.Context) (*models.IndexManifest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buildID, err := m.readCurrent()
	if err != nil {
		return nil, err
	}
	return readManifest(filepath.Join(m.dbPath, buildID, manifestFile))
}

// Search returns up to k stored chunks ordered by cosine similarity to the
// query vector. k larger than the index is clamped.
func (m *VectorDBManager) Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	collection, err := m.currentCollection()
	if err != nil {
		return nil, err
	}

	n := min(k, collection.Count())
	if n == 0 {
		return nil, nil
	}
	results, err := collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	searchResults := make([]models.SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = toSearchResult(r)
	}
	return searchResults, nil
}

func (m *VectorDBManager) currentCollection() (*chromem.Collection, error) {
	m.mu.RLock()
	buildID, err := m.readCurrent()
	if err == nil && buildID == m.loadedBuild && m.collection != nil {
		c := m.collection
		m.mu.RUnlock()
		return c, nil
	}
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// another reader may have loaded it meanwhile
	buildID, err = m.readCurrent()
	if err != nil {
		return nil, err
	}
	if buildID == m.loadedBuild && m.collection != nil {
		return m.collection, nil
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(filepath.Join(m.dbPath, buildID, indexFile), m.encryptionKey, collectionName); err != nil {
		return nil, fmt.Errorf("failed to import index %s: %w", buildID, err)
	}
	collection := db.GetCollection(collectionName, noEmbedding)
	if collection == nil {
		return nil, fmt.Errorf("index %s has no %s collection", buildID, collectionName)
	}

	m.loadedBuild = buildID
	m.collection = collection
	log.Debug().Str("build_id", buildID).Int("chunks", collection.Count()).Msg("Loaded index build")
	return collection, nil
}

func (m *VectorDBManager) readCurrent() (string, error) {
	data, err := os.ReadFile(filepath.Join(m.dbPath, currentFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", models.ErrMissingIndex
	}
	if err != nil {
		return "", fmt.Errorf("failed to read index pointer: %w", err)
	}
	buildID := strings.TrimSpace(string(data))
	if buildID == "" {
		return "", models.ErrMissingIndex
	}
	return buildID, nil
}

func (m *VectorDBManager) writeCurrent(buildID string) error {
	tmp := filepath.Join(m.dbPath, currentFile+".tmp")
	if err := os.WriteFile(tmp, []byte(buildID+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write index pointer: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(m.dbPath, currentFile)); err != nil {
		return fmt.Errorf("failed to publish index pointer: %w", err)
	}
	return nil
}

// removeStaleBuilds deletes build directories other than keep. Failures are
// logged only, the new build is already published.
func (m *VectorDBManager) removeStaleBuilds(keep string) {
	entries, err := os.ReadDir(m.dbPath)
	if err != nil {
		log.Warn().Err(err).Str("path", m.dbPath).Msg("Failed to list index builds")
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == keep {
			continue
		}
		dir := filepath.Join(m.dbPath, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, manifestFile)); err != nil {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to remove stale index build")
		}
	}
}

func writeManifest(path string, manifest models.IndexManifest) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func readManifest(path string) (*models.IndexManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var manifest models.IndexManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &manifest, nil
}
