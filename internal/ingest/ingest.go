package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"taxrag/internal/vectorstore"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
)

// Indexer is the write side of the vector index.
type Indexer interface {
	Add(ctx context.Context, records []vectorstore.Record) error
}

// Service loads source documents, splits them into overlapping chunks and
// indexes them for retrieval. Chunk ordinals are recorded 0-indexed in the
// page field; the retrieval gateway converts them to 1-indexed for users.
type Service struct {
	loader       *file.FileLoader
	index        Indexer
	chunkSize    int
	chunkOverlap int
}

func NewService(ctx context.Context, index Indexer, chunkSize, chunkOverlap int) (*Service, error) {
	parserExt, err := parser.NewExtParser(ctx, &parser.ExtParserConfig{
		FallbackParser: parser.TextParser{},
	})
	if err != nil {
		return nil, fmt.Errorf("init document parser: %w", err)
	}
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      parserExt,
	})
	if err != nil {
		return nil, fmt.Errorf("init file loader: %w", err)
	}
	return &Service{
		loader:       loader,
		index:        index,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// Ingest indexes every file in sources (path -> source URL) and returns the
// number of chunks indexed. Sources are processed in path order so repeated
// ingestion of the same set is deterministic.
func (s *Service) Ingest(ctx context.Context, sources map[string]string) (int, error) {
	paths := make([]string, 0, len(sources))
	for path := range sources {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	total := 0
	for _, path := range paths {
		count, err := s.ingestFile(ctx, path, sources[path])
		if err != nil {
			return total, fmt.Errorf("ingest %s: %w", path, err)
		}
		total += count
	}
	return total, nil
}

func (s *Service) ingestFile(ctx context.Context, path, sourceURL string) (int, error) {
	docs, err := s.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return 0, fmt.Errorf("load file: %w", err)
	}
	var b strings.Builder
	for _, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return 0, nil
	}

	chunks := splitText(text, s.chunkSize, s.chunkOverlap)
	records := make([]vectorstore.Record, 0, len(chunks))
	for i, chunk := range chunks {
		records = append(records, vectorstore.Record{
			Content: chunk,
			Metadata: map[string]any{
				"source":     path,
				"page":       i,
				"source_url": sourceURL,
			},
		})
	}
	if err := s.index.Add(ctx, records); err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}
	return len(records), nil
}
