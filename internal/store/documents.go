package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/parleyhq/parley/internal/chunker"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// WriteDocument records a document and its chunk metadata in one transaction.
func (s *Store) WriteDocument(ctx context.Context, doc Document, chunks []chunker.DocumentChunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, filename, char_len, chunk_count, strategy, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.Filename, doc.CharLen, doc.ChunkCount, doc.Strategy, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	for _, ch := range chunks {
		_, err = tx.Exec(ctx, `
			INSERT INTO document_chunks (id, document_id, ordinal, content, char_len, strategy)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			ch.ChunkID, ch.DocumentID, ch.Ordinal, ch.Text, ch.CharLen, string(ch.Strategy),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", ch.Ordinal, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ChunkContent returns the full stored text of one chunk.
func (s *Store) ChunkContent(ctx context.Context, chunkID uuid.UUID) (string, error) {
	var content string
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM document_chunks WHERE id = $1`, chunkID).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query chunk content: %w", err)
	}
	return content, nil
}
