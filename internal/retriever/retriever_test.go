package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/vecindex"
)

type fakeEmbedder struct {
	vector    []float32
	dimension int
	err       error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) Dimension() int { return f.dimension }

func seedIndex(t *testing.T, dim int, n int) *vecindex.Memory {
	t.Helper()
	idx := vecindex.NewMemory(dim)
	for i := 0; i < n; i++ {
		err := idx.Upsert(context.Background(), []vecindex.Entry{{
			ChunkID:    uuid.New(),
			DocumentID: uuid.New(),
			Preview:    fmt.Sprintf("chunk %d", i),
			Vector:     []float32{1, float32(i)},
		}})
		if err != nil {
			t.Fatalf("seed upsert: %v", err)
		}
	}
	return idx
}

func TestRetrieve_RankedAndBounded(t *testing.T) {
	idx := seedIndex(t, 2, 8)
	emb := &fakeEmbedder{vector: []float32{1, 0}, dimension: 2}

	r, err := New(emb, idx, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evidence, err := r.Retrieve(context.Background(), "what is parley", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evidence) != 3 {
		t.Fatalf("expected 3 items, got %d", len(evidence))
	}
	for i := 1; i < len(evidence); i++ {
		if evidence[i].Score > evidence[i-1].Score {
			t.Errorf("scores increase at position %d", i)
		}
	}
	if evidence[0].ContentPreview != "chunk 0" {
		t.Errorf("expected most aligned chunk first, got %q", evidence[0].ContentPreview)
	}
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	idx := seedIndex(t, 2, 1)
	r, err := New(&fakeEmbedder{vector: []float32{1, 0}, dimension: 2}, idx, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Retrieve(context.Background(), "", 3); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestRetrieve_EmbedderFailure(t *testing.T) {
	idx := seedIndex(t, 2, 1)
	emb := &fakeEmbedder{dimension: 2, err: errors.New("connection refused")}

	r, err := New(emb, idx, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Retrieve(context.Background(), "query", 3); err == nil {
		t.Fatal("expected error when embedder is unavailable")
	}
}

func TestNew_DimensionMismatchIsFatal(t *testing.T) {
	idx := vecindex.NewMemory(3)
	emb := &fakeEmbedder{dimension: 2}

	if _, err := New(emb, idx, slog.Default()); !errors.Is(err, vecindex.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestRetrieve_RuntimeDimensionDrift(t *testing.T) {
	idx := seedIndex(t, 2, 1)
	// Claims 2 dims but returns 3: configuration drift detected at query time.
	emb := &fakeEmbedder{vector: []float32{1, 0, 0}, dimension: 2}

	r, err := New(emb, idx, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Retrieve(context.Background(), "query", 3); !errors.Is(err, vecindex.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestRetrieve_FewerResultsThanK(t *testing.T) {
	idx := seedIndex(t, 2, 2)
	r, err := New(&fakeEmbedder{vector: []float32{1, 0}, dimension: 2}, idx, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	evidence, err := r.Retrieve(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evidence) != 2 {
		t.Errorf("expected 2 items, got %d", len(evidence))
	}
}
