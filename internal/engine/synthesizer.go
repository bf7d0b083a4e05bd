package engine

import (
	"context"
	"fmt"

	"taxrag/internal/models"

	"github.com/cloudwego/eino/schema"
)

// Synthesize generates the final answer for a question from one retrieval
// round's context. The model is constrained to a structured answer (body
// plus citation list); citation deduplication, renumbering and the sources
// block are applied deterministically here rather than trusted to the model.
func (e *Engine) Synthesize(ctx context.Context, question, docContext string) (string, error) {
	msgs := []*schema.Message{
		schema.UserMessage(fmt.Sprintf(generatePrompt, question, docContext)),
	}
	var structured models.StructuredAnswer
	if err := e.llm.CompleteStructured(ctx, msgs, &structured); err != nil {
		return "", err
	}
	if structured.Answer == "" {
		return "", &models.SchemaViolationError{
			Raw: "",
			Err: fmt.Errorf("structured answer body must not be empty"),
		}
	}
	return renderAnswer(structured.Answer, structured.Citations), nil
}
