package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/store"
)

// NewTestStore creates a file-backed SQLiteStore in a temporary directory
// with all migrations applied. A file is used instead of ":memory:" because
// every pooled connection would otherwise see its own empty database.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(TestDBPath(t), nil)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// TestDBPath returns a fresh database path under t.TempDir().
func TestDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "neural-mail.db")
}

// Messages builds n distinct messages with ids 1..n, all labeled Inbox.
func Messages(n int) []model.Message {
	msgs := make([]model.Message, 0, n)
	for i := 1; i <= n; i++ {
		msgs = append(msgs, model.Message{
			ID:        int64(i),
			Subject:   fmt.Sprintf("Subject %d", i),
			Sender:    fmt.Sprintf("sender%d@example.com", i),
			DateLabel: "Oct 15",
			Body:      fmt.Sprintf("Body of message %d", i),
			Category:  model.CategoryInbox,
		})
	}
	return msgs
}
