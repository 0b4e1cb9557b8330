// Package vecindex stores chunk embeddings and answers nearest-neighbour
// queries under cosine similarity. The index holds only a weak back-reference
// to each chunk; ownership of chunk content stays with the relational store.
package vecindex

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDimensionMismatch signals embedding/index configuration drift. It is a
// fatal setup error, never a retry condition.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// PreviewLimit caps the stored content preview per entry.
const PreviewLimit = 1000

// Entry is one chunk vector plus its back-reference.
type Entry struct {
	ChunkID    uuid.UUID
	DocumentID uuid.UUID
	Preview    string
	Vector     []float32
}

// Match is a ranked query result. Similarity is raw cosine in [-1, 1].
type Match struct {
	ChunkID    uuid.UUID
	DocumentID uuid.UUID
	Preview    string
	Similarity float64
}

// Index is the vector index capability the retrieval path consumes.
type Index interface {
	Upsert(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
	Dimension() int
}

func clipPreview(s string) string {
	runes := []rune(s)
	if len(runes) <= PreviewLimit {
		return s
	}
	return string(runes[:PreviewLimit])
}
