package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the relational side of persistence: documents, chunk metadata
// and confirmed bookings. Vector storage lives in vecindex.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pool so the vector index can share it.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Document is the relational record of one ingested document.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	CharLen    int       `json:"char_len"`
	ChunkCount int       `json:"chunk_count"`
	Strategy   string    `json:"strategy"`
	CreatedAt  time.Time `json:"created_at"`
}

// Counts feeds the status endpoint.
type Counts struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Bookings  int `json:"bookings"`
}

func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM documents),
			(SELECT count(*) FROM document_chunks),
			(SELECT count(*) FROM bookings)`)
	if err := row.Scan(&c.Documents, &c.Chunks, &c.Bookings); err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}
