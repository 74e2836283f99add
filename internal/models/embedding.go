package models

import (
	"strings"
	"time"
)

// Document is an uploaded file. The extension of Name selects the extractor.
type Document struct {
	Name string
	Data []byte
}

// Chunk represents a piece of the concatenated document text.
// ChunkID is the 1-based position in the chunk sequence and Offset the rune
// offset of the chunk inside the text it was split from.
type Chunk struct {
	ChunkID int    `json:"chunk_id"`
	Offset  int    `json:"offset"`
	Content string `json:"content"`
}

type ChunkEmbedding struct {
	Chunk
	Embedding []float32
}

type SearchResult struct {
	Chunk
	Similarity float32 `json:"similarity"`
}

// IndexManifest describes one build of the vector index.
type IndexManifest struct {
	BuildID        string    `yaml:"build_id" json:"build_id"`
	Provider       string    `yaml:"provider" json:"provider"`
	EmbeddingModel string    `yaml:"embedding_model" json:"embedding_model"`
	Dimension      int       `yaml:"dimension" json:"dimension"`
	ChunkCount     int       `yaml:"chunk_count" json:"chunk_count"`
	ChunkSize      int       `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap   int       `yaml:"chunk_overlap" json:"chunk_overlap"`
	Splitter       string    `yaml:"splitter" json:"splitter"`
	Documents      []string  `yaml:"documents" json:"documents"`
	CreatedAt      time.Time `yaml:"created_at" json:"created_at"`
}

type PromptResponse struct {
	Query   string         `json:"question"`
	Sources []SearchResult `json:"sources"`
	Content string         `json:"answer"`
}

// Render returns the answer followed by the AI disclaimer.
func (r *PromptResponse) Render() string {
	return strings.TrimSpace(r.Content) + Disclaimer
}
