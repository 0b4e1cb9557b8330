// Package ingest runs the document pipeline: chunk, embed, index, record.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/chunker"
	"github.com/parleyhq/parley/internal/store"
	"github.com/parleyhq/parley/internal/vecindex"
)

// Embedder maps chunk text to vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MetadataStore records the document and its chunks relationally. Optional;
// nil disables relational persistence.
type MetadataStore interface {
	WriteDocument(ctx context.Context, doc store.Document, chunks []chunker.DocumentChunk) error
}

// Result summarizes one ingestion run.
type Result struct {
	DocumentID    uuid.UUID `json:"document_id"`
	ChunksCreated int       `json:"chunks_created"`
	Strategy      string    `json:"strategy"`
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	chunker  *chunker.Chunker
	embedder Embedder
	index    vecindex.Index
	meta     MetadataStore
	log      *slog.Logger
	now      func() time.Time
}

func New(ck *chunker.Chunker, embedder Embedder, index vecindex.Index, meta MetadataStore, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		chunker:  ck,
		embedder: embedder,
		index:    index,
		meta:     meta,
		log:      log,
		now:      time.Now,
	}
}

// Ingest chunks a document, embeds and indexes every chunk, then records the
// metadata. A document that produces zero chunks is rejected. Embedding or
// indexing failure aborts the run before the document record is written, so
// a retry starts clean under a fresh document id.
func (p *Pipeline) Ingest(ctx context.Context, filename, content string, strategy chunker.Strategy) (Result, error) {
	if strings.TrimSpace(content) == "" {
		return Result{}, fmt.Errorf("document %q is empty", filename)
	}

	docID := uuid.New()

	chunks, err := p.chunker.Chunk(docID, content, strategy)
	if err != nil {
		return Result{}, err
	}

	entries := make([]vecindex.Entry, 0, len(chunks))
	for _, ch := range chunks {
		vec, err := p.embedder.Embed(ctx, ch.Text)
		if err != nil {
			return Result{}, fmt.Errorf("embed chunk %d: %w", ch.Ordinal, err)
		}
		entries = append(entries, vecindex.Entry{
			ChunkID:    ch.ChunkID,
			DocumentID: ch.DocumentID,
			Preview:    ch.Text,
			Vector:     vec,
		})
	}
	if err := p.index.Upsert(ctx, entries); err != nil {
		return Result{}, fmt.Errorf("index chunks: %w", err)
	}

	if p.meta != nil {
		doc := store.Document{
			ID:         docID.String(),
			Filename:   filename,
			CharLen:    len([]rune(content)),
			ChunkCount: len(chunks),
			Strategy:   string(strategy),
			CreatedAt:  p.now().UTC(),
		}
		if err := p.meta.WriteDocument(ctx, doc, chunks); err != nil {
			return Result{}, fmt.Errorf("record document: %w", err)
		}
	}

	p.log.Info("document ingested",
		"document_id", docID, "filename", filename, "chunks", len(chunks), "strategy", strategy)

	return Result{
		DocumentID:    docID,
		ChunksCreated: len(chunks),
		Strategy:      string(strategy),
	}, nil
}
