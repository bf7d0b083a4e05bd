package engine

import (
	"context"
	"log"

	"taxrag/internal/models"
)

// The orchestrator is a small state machine with LLM-driven transitions:
//
//	decide -> retrieve (tool call) | end (direct answer)
//	retrieve -> grade
//	grade -> answer (relevant) | rewrite (not relevant, under the bound)
//	rewrite -> decide
//	answer -> end
//
// The rewrite/decide cycle is bounded: once maxRewrites reformulations have
// failed grading, the turn ends with a deterministic fallback answer instead
// of looping. The summarization check runs after the turn's messages are
// appended (see Chat), so both direct and synthesized answers keep history
// bounded.
type node int

const (
	nodeDecide node = iota
	nodeRetrieve
	nodeGrade
	nodeRewrite
	nodeAnswer
	nodeEnd
)

// turnState is the scratch state threaded through one turn. It never aliases
// checkpoint memory, so a failed turn leaves the thread untouched.
type turnState struct {
	history    []*models.Message
	question   string
	query      string
	chunks     []models.Chunk
	docContext string
	rewrites   int
	answer     string
}

func (e *Engine) runTurn(ctx context.Context, cp *models.Checkpoint, userMsg *models.Message) (string, error) {
	ts := &turnState{
		history:  append(append([]*models.Message(nil), cp.Messages...), userMsg),
		question: userMsg.Content,
	}

	state := nodeDecide
	for state != nodeEnd {
		var err error
		switch state {
		case nodeDecide:
			state, err = e.stepDecide(ctx, cp.Summary, ts)
		case nodeRetrieve:
			state, err = e.stepRetrieve(ctx, ts)
		case nodeGrade:
			state, err = e.stepGrade(ctx, ts)
		case nodeRewrite:
			state, err = e.stepRewrite(ctx, ts)
		case nodeAnswer:
			state, err = e.stepAnswer(ctx, ts)
		}
		if err != nil {
			return "", err
		}
	}
	return ts.answer, nil
}

func (e *Engine) stepDecide(ctx context.Context, summary string, ts *turnState) (node, error) {
	decision, err := e.Decide(ctx, summary, ts.history)
	if err != nil {
		return nodeEnd, err
	}
	if decision.Query == "" {
		ts.answer = decision.Direct
		return nodeEnd, nil
	}
	ts.query = decision.Query
	return nodeRetrieve, nil
}

func (e *Engine) stepRetrieve(ctx context.Context, ts *turnState) (node, error) {
	chunks, err := e.retriever.Retrieve(ctx, ts.query)
	if err != nil {
		return nodeEnd, err
	}
	ts.chunks = chunks
	ts.docContext = formatChunks(chunks)
	return nodeGrade, nil
}

func (e *Engine) stepGrade(ctx context.Context, ts *turnState) (node, error) {
	decision, err := e.Grade(ctx, ts.question, ts.docContext)
	if err != nil {
		return nodeEnd, err
	}
	if decision == models.GradeRelevant {
		return nodeAnswer, nil
	}
	if ts.rewrites >= e.maxRewrites {
		log.Printf("rewrite limit reached after %d rounds for question %q", ts.rewrites, ts.question)
		ts.answer = insufficientAnswer
		return nodeEnd, nil
	}
	return nodeRewrite, nil
}

func (e *Engine) stepRewrite(ctx context.Context, ts *turnState) (node, error) {
	msg, err := e.Rewrite(ctx, ts.question)
	if err != nil {
		return nodeEnd, err
	}
	ts.rewrites++
	ts.question = msg.Content
	ts.history = append(ts.history, msg)
	return nodeDecide, nil
}

func (e *Engine) stepAnswer(ctx context.Context, ts *turnState) (node, error) {
	answer, err := e.Synthesize(ctx, ts.question, ts.docContext)
	if err != nil {
		return nodeEnd, err
	}
	ts.answer = answer
	return nodeEnd, nil
}
