package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"taxrag/internal/models"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

const retrieverToolName = "retrieve_documents"

// Retriever wraps the vector search capability: it expands acronyms, runs a
// fixed top-k nearest-neighbor search and normalizes result metadata. An
// empty result set is a valid outcome, not an error.
type Retriever struct {
	searcher Searcher
	topK     int
	timeout  time.Duration
}

func NewRetriever(searcher Searcher, topK int, timeout time.Duration) *Retriever {
	if topK <= 0 {
		topK = 6
	}
	return &Retriever{searcher: searcher, topK: topK, timeout: timeout}
}

// Retrieve returns normalized chunks for the query.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.Chunk, error) {
	expanded := ExpandAcronyms(query)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	hits, err := r.searcher.Search(ctx, expanded, r.topK)
	if err != nil {
		return nil, &models.ExternalServiceError{Service: "vector-search", Err: err}
	}
	chunks := make([]models.Chunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, normalizeHit(hit))
	}
	return chunks, nil
}

func normalizeHit(hit SearchHit) models.Chunk {
	chunk := models.Chunk{Content: hit.Content}
	if source, ok := hit.Metadata["source"].(string); ok {
		chunk.Document = cleanDocumentName(source)
	}
	chunk.Page = normalizePage(hit.Metadata["page"])
	if url, ok := hit.Metadata["source_url"].(string); ok {
		chunk.SourceURL = url
	}
	if section, ok := hit.Metadata["section"].(string); ok {
		chunk.Section = section
	}
	return chunk
}

// cleanDocumentName strips the path and extension from a source identifier.
func cleanDocumentName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// normalizePage converts a 0-indexed numeric page to 1-indexed; any other
// value is carried through verbatim.
func normalizePage(raw any) string {
	switch v := raw.(type) {
	case int:
		return strconv.Itoa(v + 1)
	case int64:
		return strconv.FormatInt(v+1, 10)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v)+1, 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// formatChunks renders one retrieval round the way the synthesizer and
// grader consume it: content followed by its metadata block.
func formatChunks(chunks []models.Chunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Document Content:\n")
		b.WriteString(chunk.Content)
		b.WriteString("\n\nMetadata:\n")
		fmt.Fprintf(&b, "document_name: %s\n", chunk.Document)
		fmt.Fprintf(&b, "page: %s\n", chunk.Page)
		fmt.Fprintf(&b, "source_url: %s", chunk.SourceURL)
		if chunk.Section != "" {
			fmt.Fprintf(&b, "\nsection: %s", chunk.Section)
		}
	}
	return b.String()
}

type retrieveParams struct {
	Query string `json:"query"`
}

// Tool exposes retrieval as an eino invokable tool so the decision step can
// bind it to the model.
func (r *Retriever) Tool() tool.InvokableTool {
	info := &schema.ToolInfo{
		Name: retrieverToolName,
		Desc: "Retrieve relevant passages from ingested IRD tax documents for a search query.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Desc:     "Natural language search query.",
				Type:     schema.String,
				Required: true,
			},
		}),
	}
	return utils.NewTool(info, func(ctx context.Context, params *retrieveParams) (string, error) {
		chunks, err := r.Retrieve(ctx, params.Query)
		if err != nil {
			return "", err
		}
		return formatChunks(chunks), nil
	})
}

// ToolInfo returns the schema the decision step binds without needing an
// invokable instance.
func (r *Retriever) ToolInfo(ctx context.Context) (*schema.ToolInfo, error) {
	return r.Tool().Info(ctx)
}
