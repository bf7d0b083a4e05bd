package engine

import (
	"context"
	"testing"

	"taxrag/internal/models"

	"github.com/cloudwego/eino/schema"
)

func TestRewriteProducesInternalUserMessage(t *testing.T) {
	llmFake := &fakeLLM{
		complete: func(msgs []*schema.Message) (*schema.Message, error) {
			return schema.AssistantMessage("  What are the APIT deduction tables for employees?  ", nil), nil
		},
	}
	e, _ := newTestEngine(llmFake, nil)

	msg, err := e.Rewrite(context.Background(), "apit tables?")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if msg.Role != models.RoleUser || !msg.Internal {
		t.Fatalf("rewrite must produce an internal user message, got %+v", msg)
	}
	want := "What are the Advance Personal Income Tax (APIT) deduction tables for employees?"
	if msg.Content != want {
		t.Fatalf("rewrite content = %q, want %q", msg.Content, want)
	}
}

func TestRewriteEmptyFallsBackToOriginal(t *testing.T) {
	llmFake := &fakeLLM{
		complete: func(msgs []*schema.Message) (*schema.Message, error) {
			return schema.AssistantMessage("   ", nil), nil
		},
	}
	e, _ := newTestEngine(llmFake, nil)

	msg, err := e.Rewrite(context.Background(), "original question")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if msg.Content != "original question" {
		t.Fatalf("empty rewrite must fall back to original, got %q", msg.Content)
	}
}
