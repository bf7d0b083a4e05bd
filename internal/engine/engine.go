package engine

import (
	"context"
	"time"

	"taxrag/internal/config"
	"taxrag/internal/models"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// LLM is the language-model capability the engine consumes. *llm.Client
// satisfies it; tests substitute scripted fakes.
type LLM interface {
	Complete(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error)
	CompleteWithTools(ctx context.Context, msgs []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error)
	CompleteStructured(ctx context.Context, msgs []*schema.Message, out any) error
}

// SearchHit is one raw nearest-neighbor result before metadata normalization.
type SearchHit struct {
	Content  string
	Metadata map[string]any
}

// Searcher is the vector similarity search capability. Implementations are
// read-only and safe for concurrent use.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]SearchHit, error)
}

// Checkpointer persists per-thread snapshots between turns. Load returns
// (nil, nil) for an unknown thread.
type Checkpointer interface {
	Load(ctx context.Context, threadID string) (*models.Checkpoint, error)
	Save(ctx context.Context, cp *models.Checkpoint) error
}

// Engine drives one conversation turn through the retrieval/grading/rewrite
// loop. It is stateless apart from the checkpoint store; callers must
// serialize turns per thread (see the worker package).
type Engine struct {
	llm         LLM
	retriever   *Retriever
	checkpoints Checkpointer

	maxRewrites    int
	summarizeAfter int
	keepRecent     int
}

// New assembles an Engine with the configured bounds.
func New(cfg *config.Config, llmClient LLM, searcher Searcher, checkpoints Checkpointer) *Engine {
	return &Engine{
		llm:            llmClient,
		retriever:      NewRetriever(searcher, cfg.Engine.TopK, cfg.SearchDeadline()),
		checkpoints:    checkpoints,
		maxRewrites:    cfg.Engine.MaxRewrites,
		summarizeAfter: cfg.Engine.SummarizeAfter,
		keepRecent:     cfg.Engine.KeepRecent,
	}
}

// Chat runs one full turn for the thread and returns the final answer text
// with citations already embedded. Thread state is only persisted after the
// turn succeeds, so a failed turn leaves history untouched.
func (e *Engine) Chat(ctx context.Context, message, threadID string) (string, error) {
	if message == "" {
		return "", &models.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if threadID == "" {
		threadID = "1"
	}

	cp, err := e.checkpoints.Load(ctx, threadID)
	if err != nil {
		return "", err
	}
	if cp == nil {
		cp = &models.Checkpoint{ThreadID: threadID}
	}

	userMsg := &models.Message{
		ThreadID:  threadID,
		Role:      models.RoleUser,
		Content:   message,
		CreatedAt: time.Now().UTC(),
	}

	answer, err := e.runTurn(ctx, cp, userMsg)
	if err != nil {
		return "", err
	}

	cp.Messages = append(cp.Messages, userMsg, &models.Message{
		ThreadID:  threadID,
		Role:      models.RoleAssistant,
		Content:   answer,
		CreatedAt: time.Now().UTC(),
	})
	if err := e.maybeSummarize(ctx, cp); err != nil {
		return "", err
	}
	cp.UpdatedAt = time.Now().UTC()
	if err := e.checkpoints.Save(ctx, cp); err != nil {
		return "", err
	}
	return answer, nil
}
