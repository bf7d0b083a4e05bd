package engine

import (
	"context"
	"fmt"
	"strings"

	"taxrag/internal/models"

	"github.com/cloudwego/eino/schema"
)

// Rewrite reformulates a question that failed retrieval into a more
// retrievable phrasing and expands acronyms in the result. The returned
// message is tagged internal so the decision step can tell it apart from a
// genuine user turn.
func (e *Engine) Rewrite(ctx context.Context, question string) (*models.Message, error) {
	msgs := []*schema.Message{
		schema.UserMessage(fmt.Sprintf(rewritePrompt, question)),
	}
	resp, err := e.llm.Complete(ctx, msgs)
	if err != nil {
		return nil, err
	}
	rewritten := strings.TrimSpace(resp.Content)
	if rewritten == "" {
		rewritten = question
	}
	return &models.Message{
		Role:     models.RoleUser,
		Content:  ExpandAcronyms(rewritten),
		Internal: true,
	}, nil
}
