package engine

import (
	"context"
	"fmt"
	"strings"

	"taxrag/internal/llm"
	"taxrag/internal/models"

	"github.com/cloudwego/eino/schema"
)

// Decision is the router outcome: either a direct answer or a retrieval
// request. Exactly one of Direct and Query is set.
type Decision struct {
	Direct     string
	Query      string
	ToolCallID string
}

// Decide is the entry and re-entry point of the orchestration loop. The
// model sees the summary (when present) and the thread history, with the
// retriever tool bound; it either answers directly or requests retrieval.
//
// A trailing internal message means the previous retrieval round failed and
// the question was rewritten. It is presented as a user turn preceded by an
// instruction to acknowledge the failed attempt, so the model does not
// silently re-submit the rewritten text.
func (e *Engine) Decide(ctx context.Context, summary string, history []*models.Message) (*Decision, error) {
	if len(history) == 0 {
		return nil, &models.ValidationError{Field: "history", Reason: "must not be empty"}
	}

	msgs := make([]*schema.Message, 0, len(history)+3)
	msgs = append(msgs, schema.SystemMessage(decidePrompt))
	if summary != "" {
		msgs = append(msgs, schema.SystemMessage("Summary of the earlier conversation:\n"+summary))
	}
	last := len(history) - 1
	for i, m := range history {
		if i == last && m.Internal && m.Role == models.RoleUser {
			msgs = append(msgs, schema.SystemMessage(retryNotice))
			msgs = append(msgs, schema.UserMessage(m.Content))
			continue
		}
		msgs = append(msgs, toSchemaMessage(m))
	}

	info, err := e.retriever.ToolInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("retriever tool info: %w", err)
	}
	resp, err := e.llm.CompleteWithTools(ctx, msgs, []*schema.ToolInfo{info})
	if err != nil {
		return nil, err
	}

	if len(resp.ToolCalls) == 0 {
		return &Decision{Direct: resp.Content}, nil
	}
	call := resp.ToolCalls[0]
	if call.Function.Name != retrieverToolName {
		return nil, &models.SchemaViolationError{
			Raw: call.Function.Name,
			Err: fmt.Errorf("model requested unknown tool %q", call.Function.Name),
		}
	}
	var params retrieveParams
	if err := llm.DecodeStrict(call.Function.Arguments, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Query) == "" {
		return nil, &models.SchemaViolationError{
			Raw: call.Function.Arguments,
			Err: fmt.Errorf("tool call query must not be empty"),
		}
	}
	return &Decision{Query: params.Query, ToolCallID: call.ID}, nil
}

func toSchemaMessage(m *models.Message) *schema.Message {
	switch m.Role {
	case models.RoleAssistant:
		return schema.AssistantMessage(m.Content, nil)
	case models.RoleSystem:
		return schema.SystemMessage(m.Content)
	case models.RoleTool:
		return schema.ToolMessage(m.Content, "")
	default:
		return schema.UserMessage(m.Content)
	}
}
