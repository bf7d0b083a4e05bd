package engine

import (
	"context"
	"fmt"

	"taxrag/internal/models"

	"github.com/cloudwego/eino/schema"
)

type gradeResult struct {
	BinaryScore string `json:"binary_score"`
}

// Grade judges whether one retrieval round's content is relevant to the
// question. An empty context is never relevant and skips the model call.
// The grading prompt runs at temperature 0; any score outside yes/no is a
// schema violation, not a third state.
func (e *Engine) Grade(ctx context.Context, question, docContext string) (models.GradeDecision, error) {
	if docContext == "" {
		return models.GradeNotRelevant, nil
	}
	msgs := []*schema.Message{
		schema.UserMessage(fmt.Sprintf(gradePrompt, docContext, question)),
	}
	var result gradeResult
	if err := e.llm.CompleteStructured(ctx, msgs, &result); err != nil {
		return "", err
	}
	switch result.BinaryScore {
	case "yes":
		return models.GradeRelevant, nil
	case "no":
		return models.GradeNotRelevant, nil
	default:
		return "", &models.SchemaViolationError{
			Raw: result.BinaryScore,
			Err: fmt.Errorf("binary_score must be yes or no, got %q", result.BinaryScore),
		}
	}
}
