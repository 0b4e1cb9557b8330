package vecindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var _ Index = (*Memory)(nil)

// Memory is an in-memory cosine index for development and tests.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	entries   map[uuid.UUID]Entry
}

func NewMemory(dimension int) *Memory {
	return &Memory{
		dimension: dimension,
		entries:   make(map[uuid.UUID]Entry),
	}
}

func (m *Memory) Upsert(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if len(e.Vector) != m.dimension {
			return fmt.Errorf("%w: entry has %d dims, index expects %d", ErrDimensionMismatch, len(e.Vector), m.dimension)
		}
		e.Preview = clipPreview(e.Preview)
		m.entries[e.ChunkID] = e
	}
	return nil
}

func (m *Memory) Query(_ context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: query has %d dims, index expects %d", ErrDimensionMismatch, len(vector), m.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	matches := make([]Match, 0, len(m.entries))
	for _, e := range m.entries {
		matches = append(matches, Match{
			ChunkID:    e.ChunkID,
			DocumentID: e.DocumentID,
			Preview:    e.Preview,
			Similarity: cosine(vector, e.Vector),
		})
	}
	m.mu.RUnlock()

	// Highest similarity first; equal scores break ties on ascending chunk id
	// so results are deterministic.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return strings.Compare(matches[i].ChunkID.String(), matches[j].ChunkID.String()) < 0
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Len reports how many entries the index holds.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Dimension() int {
	return m.dimension
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
