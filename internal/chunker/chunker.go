package chunker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Strategy selects how a document is split into retrievable units.
type Strategy string

const (
	StrategyFixedSize Strategy = "fixed_size"
	StrategySemantic  Strategy = "semantic"
)

const (
	DefaultWidth   = 800
	DefaultOverlap = 100
)

// ErrInvalidStrategy is returned for a strategy identifier the engine does
// not recognise. It is rejected before any splitting work begins.
var ErrInvalidStrategy = errors.New("invalid chunking strategy")

// DocumentChunk is one retrievable span of document text. Immutable once
// created; Ordinal positions are contiguous and zero-based per document.
type DocumentChunk struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Ordinal    int       `json:"ordinal_position"`
	Text       string    `json:"text"`
	CharLen    int       `json:"char_length"`
	Strategy   Strategy  `json:"strategy_used"`
}

// Chunker splits extracted document text eagerly into ordered chunks.
type Chunker struct {
	width   int
	overlap int
}

func New(width, overlap int) (*Chunker, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= width {
		return nil, fmt.Errorf("overlap %d must be smaller than width %d", overlap, width)
	}
	return &Chunker{width: width, overlap: overlap}, nil
}

// Chunk splits text under the given strategy. Empty input yields an empty
// sequence, not an error.
func (c *Chunker) Chunk(docID uuid.UUID, text string, strategy Strategy) ([]DocumentChunk, error) {
	var parts []string
	switch strategy {
	case StrategyFixedSize:
		parts = c.fixedSize(text)
	case StrategySemantic:
		parts = c.semantic(text)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
	}

	chunks := make([]DocumentChunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, DocumentChunk{
			ChunkID:    uuid.New(),
			DocumentID: docID,
			Ordinal:    i,
			Text:       part,
			CharLen:    len([]rune(part)),
			Strategy:   strategy,
		})
	}
	return chunks, nil
}

// fixedSize is a deterministic sliding window: each window is width runes,
// the start advances by width−overlap, and the last window may be shorter.
// Every rune of input lands in at least one chunk and consecutive chunks
// overlap by exactly the configured amount.
func (c *Chunker) fixedSize(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.width {
		return []string{string(runes)}
	}

	step := c.width - c.overlap
	var parts []string
	for start := 0; start < len(runes); start += step {
		end := start + c.width
		if end >= len(runes) {
			parts = append(parts, string(runes[start:]))
			break
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
