package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperjump/kizami/internal/vector"
)

// OpenAIEmbedder produces real embeddings via the OpenAI API. It implements
// the same Embedder interface as the fingerprint default, so swapping it in
// touches no segmentation or store code.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates an embedder for the given model. The API key is
// read from the OPENAI_API_KEY environment variable.
func NewOpenAIEmbedder(model string) (*OpenAIEmbedder, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	dimensions := 1536
	if model == string(openai.LargeEmbedding3) {
		dimensions = 3072
	}
	return &OpenAIEmbedder{
		client:     openai.NewClient(key),
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed requests an embedding for text and returns it L2-normalized.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (vector.Vector, error) {
	if text == "" {
		return vector.Vector{}, errors.New("cannot embed empty text")
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return vector.Vector{}, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return vector.Vector{}, errors.New("no embedding data returned")
	}
	values := make([]float64, len(resp.Data[0].Embedding))
	for i, x := range resp.Data[0].Embedding {
		values[i] = float64(x)
	}
	return vector.Normalize(vector.Vector{Values: values, Dim: len(values)}), nil
}

// EmbedBatch requests embeddings for all texts in a single API call.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]vector.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	out := make([]vector.Vector, len(resp.Data))
	for i, d := range resp.Data {
		values := make([]float64, len(d.Embedding))
		for j, x := range d.Embedding {
			values[j] = float64(x)
		}
		out[i] = vector.Normalize(vector.Vector{Values: values, Dim: len(values)})
	}
	return out, nil
}

// Dimensions returns the embedding dimension for the configured model.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OpenAIEmbedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
