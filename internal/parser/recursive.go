package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"pdf-rag/internal/models"
)

// RecursiveSplitter splits on paragraph, line and word boundaries before
// falling back to single characters. Chunks are trimmed, so JoinChunks does
// not reconstruct its input.
type RecursiveSplitter struct {
	splitter textsplitter.RecursiveCharacter
}

func newRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	return &RecursiveSplitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

func (s *RecursiveSplitter) Split(text string) ([]models.Chunk, error) {
	if text == "" {
		return nil, nil
	}

	parts, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(parts))
	cursor := 0 // byte position where the search for the next chunk starts
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		offset := -1
		if idx := strings.Index(text[cursor:], part); idx >= 0 {
			pos := cursor + idx
			offset = utf8.RuneCountInString(text[:pos])
			cursor = pos + 1
			for cursor < len(text) && !utf8.RuneStart(text[cursor]) {
				cursor++
			}
		}
		chunks = append(chunks, models.Chunk{
			ChunkID: len(chunks) + 1,
			Offset:  offset,
			Content: part,
		})
	}
	return chunks, nil
}
