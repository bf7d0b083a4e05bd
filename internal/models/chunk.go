package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Chunk is a retrieved passage with normalized metadata. Page is reported
// 1-indexed; non-numeric page labels from the source are carried verbatim.
type Chunk struct {
	Content   string `json:"content"`
	Document  string `json:"document"`
	Page      string `json:"page"`
	SourceURL string `json:"source_url"`
	Section   string `json:"section,omitempty"`
}

// GradeDecision is the binary outcome of the relevance grader.
type GradeDecision string

const (
	GradeRelevant    GradeDecision = "relevant"
	GradeNotRelevant GradeDecision = "not_relevant"
)

// PageLabel tolerates both JSON numbers and strings, since page identifiers
// in source metadata are usually integers but occasionally roman or empty.
type PageLabel string

func (p *PageLabel) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*p = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PageLabel(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("page must be a number or string: %w", err)
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		*p = PageLabel(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*p = PageLabel(n.String())
	return nil
}

// Citation references one source location used by an answer. Two citations
// are the same citation when document, page and section all match.
type Citation struct {
	DocumentName string    `json:"document_name"`
	SourceURL    string    `json:"source_url"`
	Page         PageLabel `json:"page_number"`
	Section      string    `json:"section,omitempty"`
}

// Key is the identity used for deduplication.
func (c Citation) Key() string {
	return c.DocumentName + "\x00" + string(c.Page) + "\x00" + c.Section
}

// StructuredAnswer is the synthesizer's raw output before citation
// deduplication and rendering.
type StructuredAnswer struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}
