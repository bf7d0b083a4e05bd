package models

import "time"

// Thread is a persistent conversation identity with ordered message history.
// The summary, when present, stands in for older messages that were compacted
// away by the summarizer.
type Thread struct {
	ID        string     `json:"id"`
	Messages  []*Message `json:"messages"`
	Summary   string     `json:"summary"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Checkpoint is a per-thread snapshot the orchestrator restores between turns.
type Checkpoint struct {
	ThreadID  string     `json:"thread_id"`
	Messages  []*Message `json:"messages"`
	Summary   string     `json:"summary"`
	UpdatedAt time.Time  `json:"updated_at"`
}
