// Package retriever turns a query into a bounded, ranked evidence set.
package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/vecindex"
)

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// EvidenceItem is one retrieved chunk with its raw cosine similarity.
// Transient: created per query, never persisted.
type EvidenceItem struct {
	ChunkID        uuid.UUID `json:"chunk_id"`
	DocumentID     uuid.UUID `json:"document_id"`
	ContentPreview string    `json:"content_preview"`
	Score          float64   `json:"similarity_score"`
}

type Retriever struct {
	embedder Embedder
	index    vecindex.Index
	logger   *slog.Logger
}

func New(embedder Embedder, index vecindex.Index, logger *slog.Logger) (*Retriever, error) {
	if embedder.Dimension() != index.Dimension() {
		return nil, fmt.Errorf("%w: embedder produces %d dims, index expects %d",
			vecindex.ErrDimensionMismatch, embedder.Dimension(), index.Dimension())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{embedder: embedder, index: index, logger: logger}, nil
}

// Retrieve returns up to topK evidence items, most relevant first. Scores are
// raw similarities; whether a result set counts as "context used" is the
// caller's threshold decision, not this component's.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]EvidenceItem, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if topK <= 0 {
		topK = 5
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vector) != r.index.Dimension() {
		return nil, fmt.Errorf("%w: embedder returned %d dims, index expects %d",
			vecindex.ErrDimensionMismatch, len(vector), r.index.Dimension())
	}

	matches, err := r.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	evidence := make([]EvidenceItem, 0, len(matches))
	for _, m := range matches {
		evidence = append(evidence, EvidenceItem{
			ChunkID:        m.ChunkID,
			DocumentID:     m.DocumentID,
			ContentPreview: m.Preview,
			Score:          m.Similarity,
		})
	}

	r.logger.Debug("retrieved evidence", "query_len", len(query), "results", len(evidence))
	return evidence, nil
}
