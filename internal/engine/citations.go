package engine

import (
	"fmt"
	"strings"

	"taxrag/internal/models"
)

// dedupCitations drops repeated citations, keeping first-seen order. Two
// citations are duplicates only when document, page and section all match;
// the same page cited under different section titles stays distinct.
func dedupCitations(citations []models.Citation) []models.Citation {
	seen := make(map[string]struct{}, len(citations))
	out := make([]models.Citation, 0, len(citations))
	for _, c := range citations {
		key := c.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// renderCitation formats one deduplicated citation under its 1-based number:
// [N]- [Document Name](url) - Page X - Section (section only when present).
func renderCitation(n int, c models.Citation) string {
	line := fmt.Sprintf("[%d]- [%s](%s) - Page %s", n, c.DocumentName, c.SourceURL, c.Page)
	if c.Section != "" {
		line += " - " + c.Section
	}
	return line
}

// renderAnswer joins the answer body with the deduplicated, renumbered
// sources block and the fixed disclaimer footer.
func renderAnswer(body string, citations []models.Citation) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(body))
	deduped := dedupCitations(citations)
	if len(deduped) > 0 {
		b.WriteString("\n\n**Sources:**\n")
		for i, c := range deduped {
			b.WriteString("\n")
			b.WriteString(renderCitation(i+1, c))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(answerDisclaimer)
	return b.String()
}
