package vectorstore

import (
	"context"
	"errors"
	"testing"
)

// keywordEmbedder maps texts onto fixed axes so similarity is predictable.
type keywordEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.fail {
		return nil, errors.New("embedding backend down")
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 1, 1}, nil
}

func TestIndexSearchRanksBySimilarity(t *testing.T) {
	emb := &keywordEmbedder{vectors: map[string][]float32{
		"vat chunk":  {1, 0, 0},
		"paye chunk": {0, 1, 0},
		"cgt chunk":  {0, 0, 1},
		"about vat":  {0.9, 0.1, 0},
		"about paye": {0.1, 0.9, 0},
	}}
	ix := NewIndex(emb)
	records := []Record{
		{Content: "vat chunk", Metadata: map[string]any{"source": "vat.pdf"}},
		{Content: "paye chunk", Metadata: map[string]any{"source": "paye.pdf"}},
		{Content: "cgt chunk", Metadata: map[string]any{"source": "cgt.pdf"}},
	}
	if err := ix.Add(context.Background(), records); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ix.Len() != 3 {
		t.Fatalf("Len = %d", ix.Len())
	}

	hits, err := ix.Search(context.Background(), "about vat", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Content != "vat chunk" {
		t.Fatalf("best hit should be the vat chunk, got %q", hits[0].Content)
	}
	if hits[0].Metadata["source"] != "vat.pdf" {
		t.Fatalf("metadata lost: %+v", hits[0].Metadata)
	}

	hits, err = ix.Search(context.Background(), "about paye", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits[0].Content != "paye chunk" {
		t.Fatalf("best hit should be the paye chunk, got %q", hits[0].Content)
	}
}

func TestIndexSearchEmpty(t *testing.T) {
	ix := NewIndex(&keywordEmbedder{})
	hits, err := ix.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits != nil {
		t.Fatalf("empty index must return no hits, got %v", hits)
	}
}

func TestIndexSearchKLargerThanIndex(t *testing.T) {
	ix := NewIndex(&keywordEmbedder{vectors: map[string][]float32{"only": {1, 0, 0}}})
	if err := ix.Add(context.Background(), []Record{{Content: "only"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	hits, err := ix.Search(context.Background(), "only", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}

func TestIndexAddEmbedderFailure(t *testing.T) {
	ix := NewIndex(&keywordEmbedder{fail: true})
	err := ix.Add(context.Background(), []Record{{Content: "x"}})
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
	if ix.Len() != 0 {
		t.Fatalf("failed add must not index records, Len = %d", ix.Len())
	}
}

func TestIndexDimensionMismatch(t *testing.T) {
	emb := &keywordEmbedder{vectors: map[string][]float32{
		"three": {1, 0, 0},
		"two":   {1, 0},
	}}
	ix := NewIndex(emb)
	if err := ix.Add(context.Background(), []Record{{Content: "three"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ix.Add(context.Background(), []Record{{Content: "two"}}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}
