// Package openai provides an embedding provider backed by the OpenAI API,
// for deployments that prefer hosted embeddings over a local model.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultEmbeddingModel     = "text-embedding-3-small"
	DefaultEmbeddingDimension = 1536

	maxBatchSize = 100
)

type Embedder struct {
	client    openai.Client
	model     string
	dimension int
}

func NewEmbedder(apiKey, model string, dimension int) *Embedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	if dimension <= 0 {
		dimension = DefaultEmbeddingDimension
	}
	return &Embedder{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		dimension: dimension,
	}
}

// Embed generates the embedding for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embeddings generated")
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for up to 100 texts in one API call.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}
	if len(texts) > maxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds maximum of %d", len(texts), maxBatchSize)
	}

	params := openai.EmbeddingNewParams{
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: openai.Int(int64(e.dimension)),
	}
	if len(texts) == 1 {
		params.Input = openai.EmbeddingNewParamsInputUnion{OfString: openai.String(texts[0])}
	} else {
		params.Input = openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts}
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("generate embeddings: %w", err)
	}

	vectors := make([][]float32, 0, len(resp.Data))
	for _, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// Dimension reports the configured embedding vector size.
func (e *Embedder) Dimension() int {
	return e.dimension
}
