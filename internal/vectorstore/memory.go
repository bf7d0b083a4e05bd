package vectorstore

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"taxrag/internal/engine"
)

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Record is one indexed passage with its retrieval metadata
// (source, page, source_url, optional section).
type Record struct {
	Content  string
	Metadata map[string]any
}

// Index is an in-memory vector index using brute-force cosine similarity.
// Vectors are L2-normalized on insert, so similarity reduces to a dot
// product. Reads are safe for concurrent use.
type Index struct {
	embedder Embedder

	mu      sync.RWMutex
	vectors [][]float32
	records []Record
}

func NewIndex(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// Add embeds and indexes the given records.
func (ix *Index) Add(ctx context.Context, records []Record) error {
	vectors := make([][]float32, 0, len(records))
	for _, rec := range records {
		vec, err := ix.embedder.Embed(ctx, rec.Content)
		if err != nil {
			return err
		}
		if len(vec) == 0 {
			return errors.New("embedder returned empty vector")
		}
		vectors = append(vectors, normalize(vec))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if len(ix.vectors) > 0 && len(vectors) > 0 && len(ix.vectors[0]) != len(vectors[0]) {
		return errors.New("vector dimension mismatch")
	}
	ix.records = append(ix.records, records...)
	ix.vectors = append(ix.vectors, vectors...)
	return nil
}

// Search implements engine.Searcher. An empty index yields an empty result.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]engine.SearchHit, error) {
	if k <= 0 {
		k = 1
	}
	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	queryVec = normalize(queryVec)

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.vectors) == 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float32
	}
	scores := make([]scored, len(ix.vectors))
	for i, vec := range ix.vectors {
		scores[i] = scored{idx: i, score: dot(vec, queryVec)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if k > len(scores) {
		k = len(scores)
	}

	hits := make([]engine.SearchHit, 0, k)
	for _, s := range scores[:k] {
		rec := ix.records[s.idx]
		hits = append(hits, engine.SearchHit{Content: rec.Content, Metadata: rec.Metadata})
	}
	return hits, nil
}

// Len reports the number of indexed records.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
