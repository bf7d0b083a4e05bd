package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"taxrag/internal/config"
	"taxrag/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: filepath.Join(t.TempDir(), "test.db")},
		},
	}
	db, err := Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestThreadStoreLoadUnknownThread(t *testing.T) {
	store := NewThreadStore(openTestDB(t))
	cp, err := store.Load(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp != nil {
		t.Fatalf("unknown thread must load as nil, got %+v", cp)
	}
}

func TestThreadStoreRoundTrip(t *testing.T) {
	store := NewThreadStore(openTestDB(t))
	cp := &models.Checkpoint{
		ThreadID: "t1",
		Summary:  "talked about VAT",
		Messages: []*models.Message{
			{Role: models.RoleUser, Content: "What is VAT?"},
			{Role: models.RoleAssistant, Content: "Value Added Tax is..."},
			{Role: models.RoleUser, Content: "rewritten", Internal: true},
		},
	}
	if err := store.Save(context.Background(), cp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Summary != "talked about VAT" {
		t.Fatalf("summary = %q", loaded.Summary)
	}
	if len(loaded.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(loaded.Messages))
	}
	if loaded.Messages[0].Role != models.RoleUser || loaded.Messages[1].Role != models.RoleAssistant {
		t.Fatalf("roles lost: %+v", loaded.Messages)
	}
	if !loaded.Messages[2].Internal {
		t.Fatal("internal flag lost on round trip")
	}
}

func TestThreadStoreSaveReplacesMessages(t *testing.T) {
	store := NewThreadStore(openTestDB(t))
	ctx := context.Background()

	first := &models.Checkpoint{
		ThreadID: "t1",
		Messages: []*models.Message{
			{Role: models.RoleUser, Content: "old 1"},
			{Role: models.RoleAssistant, Content: "old 2"},
			{Role: models.RoleUser, Content: "old 3"},
			{Role: models.RoleAssistant, Content: "old 4"},
		},
	}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// a summarization pass compacts history: fewer rows, new summary
	second := &models.Checkpoint{
		ThreadID: "t1",
		Summary:  "summary of old turns",
		Messages: []*models.Message{
			{Role: models.RoleUser, Content: "old 3"},
			{Role: models.RoleAssistant, Content: "old 4"},
		},
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("save must replace messages, got %d rows", len(loaded.Messages))
	}
	if loaded.Summary != "summary of old turns" {
		t.Fatalf("summary = %q", loaded.Summary)
	}
	if loaded.Messages[0].Content != "old 3" {
		t.Fatalf("wrong window kept: %q", loaded.Messages[0].Content)
	}
}

func TestThreadStoreRejectsEmptyThreadID(t *testing.T) {
	store := NewThreadStore(openTestDB(t))
	if err := store.Save(context.Background(), &models.Checkpoint{}); err == nil {
		t.Fatal("expected validation error for empty thread id")
	}
}
