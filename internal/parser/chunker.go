package parser

import (
	"fmt"
	"strings"

	"pdf-rag/internal/models"
)

const (
	SplitterWindow    = "window"
	SplitterRecursive = "recursive"
)

// Splitter cuts extracted text into ordered, overlapping chunks.
type Splitter interface {
	Split(text string) ([]models.Chunk, error)
}

// NewSplitter validates the chunk parameters and returns the splitter of the
// given kind. Lengths are counted in runes.
func NewSplitter(kind string, chunkSize, chunkOverlap int) (Splitter, error) {
	if chunkSize <= 0 {
		return nil, &models.ConfigError{Field: "rag.chunk_size", Reason: fmt.Sprintf("must be positive, got %d", chunkSize)}
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, &models.ConfigError{Field: "rag.chunk_overlap", Reason: fmt.Sprintf("must be in [0, %d), got %d", chunkSize, chunkOverlap)}
	}

	switch kind {
	case "", SplitterWindow:
		return &WindowSplitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
	case SplitterRecursive:
		return newRecursiveSplitter(chunkSize, chunkOverlap), nil
	default:
		return nil, &models.ConfigError{Field: "rag.splitter", Reason: fmt.Sprintf("unknown splitter %q", kind)}
	}
}

// WindowSplitter produces fixed windows of chunkSize runes where consecutive
// windows share exactly chunkOverlap runes. Only the last chunk may be shorter.
type WindowSplitter struct {
	chunkSize    int
	chunkOverlap int
}

func (s *WindowSplitter) Split(text string) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for i, w := range chunkContent([]rune(text), s.chunkSize, s.chunkOverlap) {
		chunks = append(chunks, models.Chunk{
			ChunkID: i + 1,
			Offset:  w.start,
			Content: w.content,
		})
	}
	return chunks, nil
}

type window struct {
	start   int
	content string
}

// chunkContent slides a window of maxChars over content, stepping by
// maxChars-overlapChars, and stops at the first window that reaches the end.
func chunkContent(content []rune, maxChars, overlapChars int) []window {
	if len(content) == 0 {
		return nil
	}

	step := maxChars - overlapChars
	var windows []window
	for start := 0; ; start += step {
		end := min(start+maxChars, len(content))
		windows = append(windows, window{start: start, content: string(content[start:end])})
		if end == len(content) {
			break
		}
	}
	return windows
}

// JoinChunks rebuilds the text produced by a WindowSplitter by dropping the
// overlapping prefix of every chunk after the first.
func JoinChunks(chunks []models.Chunk, overlap int) string {
	var content strings.Builder
	for i, chunk := range chunks {
		if i == 0 {
			content.WriteString(chunk.Content)
			continue
		}
		runes := []rune(chunk.Content)
		if overlap < len(runes) {
			content.WriteString(string(runes[overlap:]))
		}
	}
	return content.String()
}
