package similarity

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedding scores strings by cosine similarity of their embeddings. Vectors are cached
// per normalized string for the life of the scorer since role titles repeat across a scan.
type Embedding struct {
	embedder Embedder

	mu    sync.Mutex
	cache map[string][]float32
}

// NewEmbedding creates an embedding-backed scorer.
func NewEmbedding(embedder Embedder) *Embedding {
	return &Embedding{
		embedder: embedder,
		cache:    make(map[string][]float32),
	}
}

// Similarity implements Scorer.
func (e *Embedding) Similarity(ctx context.Context, a, b string) (float64, error) {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		if a == "" {
			return 0, nil
		}
		return 1, nil
	}

	va, err := e.vector(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := e.vector(ctx, b)
	if err != nil {
		return 0, err
	}
	return Cosine(va, vb), nil
}

func (e *Embedding) vector(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	v, ok := e.cache[text]
	e.mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %q: %w", text, err)
	}

	e.mu.Lock()
	e.cache[text] = v
	e.mu.Unlock()
	return v, nil
}

// Cosine returns the cosine similarity of two vectors, clamped to [0, 1].
// Mismatched or zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return math.Max(0, math.Min(1, dot/(math.Sqrt(na)*math.Sqrt(nb))))
}
