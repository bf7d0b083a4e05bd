package engine

import (
	"context"
	"fmt"
	"strings"

	"taxrag/internal/models"

	"github.com/cloudwego/eino/schema"
)

// maybeSummarize compresses older history into the checkpoint summary once
// the thread grows past the configured threshold. The most recent window is
// kept verbatim; everything older is folded into a single summary string.
// The compression is lossy and irreversible.
func (e *Engine) maybeSummarize(ctx context.Context, cp *models.Checkpoint) error {
	if len(cp.Messages) <= e.summarizeAfter {
		return nil
	}
	keep := e.keepRecent
	if keep >= len(cp.Messages) {
		return nil
	}
	older := cp.Messages[:len(cp.Messages)-keep]
	recent := cp.Messages[len(cp.Messages)-keep:]

	summary, err := e.summarize(ctx, cp.Summary, older)
	if err != nil {
		return err
	}
	cp.Summary = summary
	cp.Messages = append([]*models.Message(nil), recent...)
	return nil
}

func (e *Engine) summarize(ctx context.Context, previous string, older []*models.Message) (string, error) {
	var b strings.Builder
	if previous != "" {
		b.WriteString("Summary of even earlier conversation:\n")
		b.WriteString(previous)
		b.WriteString("\n\n")
	}
	for _, m := range older {
		switch m.Role {
		case models.RoleUser:
			fmt.Fprintf(&b, "User: %s\n", m.Content)
		case models.RoleAssistant:
			fmt.Fprintf(&b, "Assistant: %s\n", m.Content)
		}
	}
	msgs := []*schema.Message{
		schema.SystemMessage(summaryPrompt),
		schema.UserMessage(b.String()),
	}
	resp, err := e.llm.Complete(ctx, msgs)
	if err != nil {
		return "", err
	}
	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return previous, nil
	}
	return summary, nil
}
