package models

import "time"

// Role discriminates who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is a single turn stored in a thread's ordered history.
type Message struct {
	ID       int64  `json:"id"`
	ThreadID string `json:"thread_id"`
	Role     Role   `json:"role"`
	Content  string `json:"content"`
	// Internal marks a query produced by the rewrite step rather than typed by
	// the user. The decision step treats a trailing internal message as a signal
	// that the previous retrieval round failed.
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}
