package vecindex

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var _ Index = (*Pgvector)(nil)

// Pgvector is the production index: chunk vectors in a postgres table with a
// pgvector column, cosine distance via the <=> operator.
type Pgvector struct {
	pool      *pgxpool.Pool
	dimension int
}

func NewPgvector(pool *pgxpool.Pool, dimension int) *Pgvector {
	return &Pgvector{pool: pool, dimension: dimension}
}

func (p *Pgvector) Upsert(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if len(e.Vector) != p.dimension {
			return fmt.Errorf("%w: entry has %d dims, index expects %d", ErrDimensionMismatch, len(e.Vector), p.dimension)
		}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO chunk_vectors (chunk_id, document_id, preview, embedding)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (chunk_id) DO UPDATE
			SET document_id = EXCLUDED.document_id,
			    preview = EXCLUDED.preview,
			    embedding = EXCLUDED.embedding`,
			e.ChunkID, e.DocumentID, clipPreview(e.Preview), pgvector.NewVector(e.Vector),
		)
		if err != nil {
			return fmt.Errorf("upsert vector: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *Pgvector) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) != p.dimension {
		return nil, fmt.Errorf("%w: query has %d dims, index expects %d", ErrDimensionMismatch, len(vector), p.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	// <=> is cosine distance; similarity = 1 − distance. Ascending chunk_id
	// breaks ties deterministically.
	rows, err := p.pool.Query(ctx, `
		SELECT chunk_id, document_id, preview, 1 - (embedding <=> $1) AS similarity
		FROM chunk_vectors
		ORDER BY embedding <=> $1 ASC, chunk_id ASC
		LIMIT $2`,
		pgvector.NewVector(vector), k,
	)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ChunkID, &m.DocumentID, &m.Preview, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (p *Pgvector) Dimension() int {
	return p.dimension
}
