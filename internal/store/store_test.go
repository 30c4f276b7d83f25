package store_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/store"
	"github.com/nhle/neuralmail/tests/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := testutil.TestDBPath(t)

	s, err := store.NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s.ReplaceAll(ctx, testutil.Messages(3)); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	s.Close()

	s, err = store.NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count after reopen = %d, want 3", n)
	}
}

func TestInitUpgradesLegacySchema(t *testing.T) {
	ctx := context.Background()
	path := testutil.TestDBPath(t)

	legacy, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("opening legacy db: %v", err)
	}
	_, err = legacy.Exec(`
		CREATE TABLE emails (
			id INTEGER PRIMARY KEY, subject TEXT, sender TEXT,
			date_str TEXT, body TEXT, has_attachment INTEGER
		);
		INSERT INTO emails (id, subject, sender, date_str, body, has_attachment)
		VALUES (7, 'old', NULL, 'Jan 1', 'legacy body', NULL);`)
	if err != nil {
		t.Fatalf("seeding legacy db: %v", err)
	}
	legacy.Close()

	s, err := store.NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("opening legacy db through store: %v", err)
	}
	defer s.Close()

	got, err := s.ByCategory(ctx, model.CategoryInbox)
	if err != nil {
		t.Fatalf("ByCategory: %v", err)
	}
	if len(got) != 1 || got[0].ID != 7 || got[0].Sender != "" {
		t.Fatalf("legacy row = %+v, want id 7 labeled Inbox with empty sender", got)
	}

	if err := s.UpdateCategory(ctx, 7, model.CategoryWork); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	work, _ := s.ByCategory(ctx, model.CategoryWork)
	if len(work) != 1 {
		t.Errorf("ByCategory(Work) = %d rows, want 1", len(work))
	}
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	if err := s.ReplaceAll(ctx, testutil.Messages(5)); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	next := testutil.Messages(2)
	next[0].Subject = "fresh"
	if err := s.ReplaceAll(ctx, next); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("All returned %d messages, want 2", len(got))
	}
	if got[0].Subject != "fresh" || got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("All = %+v", got)
	}
}

func TestReplaceAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	if err := s.ReplaceAll(ctx, testutil.Messages(3)); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	dup := testutil.Messages(2)
	dup[1].ID = dup[0].ID
	err := s.ReplaceAll(ctx, dup)
	if err == nil {
		t.Fatal("ReplaceAll with duplicate ids succeeded, want error")
	}
	var se *store.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not a *StorageError", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count after failed replace = %d, want previous 3", n)
	}
}

func TestReplaceAllAssignsIDsAndNormalizesLabels(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	err := s.ReplaceAll(ctx, []model.Message{
		{Subject: "a", Category: "Spam"},
		{Subject: "b"},
	})
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, _ := s.All(ctx)
	if len(got) != 2 {
		t.Fatalf("All returned %d messages, want 2", len(got))
	}
	for _, m := range got {
		if m.ID == 0 {
			t.Errorf("message %q was not assigned an id", m.Subject)
		}
		if m.Category != model.CategoryInbox {
			t.Errorf("message %q category = %q, want Inbox", m.Subject, m.Category)
		}
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	seed := []model.Message{
		{ID: 1, Subject: "Invoice due", Sender: "billing@acme.com", Body: "Pay now"},
		{ID: 2, Subject: "Lunch", Sender: "Bob <bob@example.com>", Body: "Tacos?"},
		{ID: 3, Subject: "Sale", Sender: "shop@example.com", Body: "50% off everything"},
		{ID: 4, Subject: "Report", Sender: "alice@corp.com", Body: "quarterly_report attached"},
	}
	if err := s.ReplaceAll(ctx, seed); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"subject ignores case", "INVOICE", []int64{1}},
		{"sender", "bob@", []int64{2}},
		{"body", "tacos", []int64{2}},
		{"spans fields", "example.com", []int64{2, 3}},
		{"blank returns all", "   ", []int64{1, 2, 3, 4}},
		{"empty returns all", "", []int64{1, 2, 3, 4}},
		{"percent is literal", "%", []int64{3}},
		{"underscore is literal", "y_r", []int64{4}},
		{"no match", "nothing-here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search(%q): %v", tt.query, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) returned %d messages, want %d", tt.query, len(got), len(tt.want))
			}
			for i, m := range got {
				if m.ID != tt.want[i] {
					t.Errorf("Search(%q)[%d].ID = %d, want %d", tt.query, i, m.ID, tt.want[i])
				}
			}
		})
	}
}

func TestByCategoryIsExact(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	msgs := testutil.Messages(3)
	msgs[1].Category = model.CategoryWork
	if err := s.ReplaceAll(ctx, msgs); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := s.ByCategory(ctx, model.CategoryWork)
	if err != nil {
		t.Fatalf("ByCategory: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("ByCategory(Work) = %+v, want message 2", got)
	}

	lower, err := s.ByCategory(ctx, "work")
	if err != nil {
		t.Fatalf("ByCategory: %v", err)
	}
	if len(lower) != 0 {
		t.Errorf("ByCategory(work) returned %d messages, want 0", len(lower))
	}
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	if err := s.ReplaceAll(ctx, testutil.Messages(2)); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	if err := s.UpdateCategory(ctx, 2, model.CategoryFinance); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	m, err := s.Get(ctx, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.Category != model.CategoryFinance {
		t.Errorf("category = %q, want Finance", m.Category)
	}

	if err := s.UpdateCategory(ctx, 999, model.CategoryWork); err != nil {
		t.Errorf("UpdateCategory on missing id: %v, want nil", err)
	}
	if work, _ := s.ByCategory(ctx, model.CategoryWork); len(work) != 0 {
		t.Errorf("ByCategory(Work) after missing-id update = %+v, want none", work)
	}
	if n, _ := s.Count(ctx); n != 2 {
		t.Errorf("Count after missing-id update = %d, want 2", n)
	}

	if err := s.UpdateCategory(ctx, 1, "Newsletters"); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	m, _ = s.Get(ctx, 1)
	if m.Category != model.CategoryInbox {
		t.Errorf("unknown label stored as %q, want Inbox", m.Category)
	}
}

func TestGetMissing(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.Get(context.Background(), 42)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(42) error = %v, want ErrNotFound", err)
	}
}

func TestListLimit(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	if err := s.ReplaceAll(ctx, testutil.Messages(30)); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := s.List(ctx, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 20 || got[0].ID != 1 || got[19].ID != 20 {
		t.Errorf("List(20) returned %d messages starting at %d", len(got), got[0].ID)
	}
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	v, err := s.GetSetting(ctx, model.SettingThemeMode, model.DefaultThemeMode)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != model.ThemeSystem {
		t.Errorf("default theme = %q, want %q", v, model.ThemeSystem)
	}

	for _, want := range []string{model.ThemeDark, model.ThemeLight} {
		if err := s.SetSetting(ctx, model.SettingThemeMode, want); err != nil {
			t.Fatalf("SetSetting: %v", err)
		}
		got, _ := s.GetSetting(ctx, model.SettingThemeMode, model.DefaultThemeMode)
		if got != want {
			t.Errorf("theme = %q, want %q", got, want)
		}
	}
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	acct := model.Account{Email: "me@example.com", IMAPHost: "imap.example.com", IMAPPort: 993}
	if err := s.UpsertAccount(ctx, acct); err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}
	acct.SMTPHost = "smtp.example.com"
	if err := s.UpsertAccount(ctx, acct); err != nil {
		t.Fatalf("UpsertAccount update: %v", err)
	}

	got, err := s.GetAccounts(ctx)
	if err != nil {
		t.Fatalf("GetAccounts: %v", err)
	}
	if len(got) != 1 || got[0].SMTPHost != "smtp.example.com" {
		t.Fatalf("GetAccounts = %+v", got)
	}

	if err := s.DeleteAccount(ctx, acct.Email); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	got, _ = s.GetAccounts(ctx)
	if len(got) != 0 {
		t.Errorf("GetAccounts after delete = %d rows, want 0", len(got))
	}

	if err := s.UpsertAccount(ctx, model.Account{}); err == nil {
		t.Error("UpsertAccount without email succeeded, want error")
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	if err := s.ReplaceAll(ctx, testutil.Messages(20)); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 80)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := int64(1); i <= 10; i++ {
				if err := s.UpdateCategory(ctx, i+int64(w), model.CategoryWork); err != nil {
					errs <- err
				}
				if _, err := s.All(ctx); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent access: %v", err)
	}
}

func TestConcurrentUpdatesOfOneMessage(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	if err := s.ReplaceAll(ctx, testutil.Messages(3)); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, label := range []model.Category{model.CategoryWork, model.CategorySocial} {
			wg.Add(1)
			go func(label model.Category) {
				defer wg.Done()
				if err := s.UpdateCategory(ctx, 2, label); err != nil {
					errs <- err
				}
			}(label)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("round %d: UpdateCategory: %v", round, err)
		}

		work, err := s.ByCategory(ctx, model.CategoryWork)
		if err != nil {
			t.Fatalf("ByCategory(Work): %v", err)
		}
		social, err := s.ByCategory(ctx, model.CategorySocial)
		if err != nil {
			t.Fatalf("ByCategory(Social): %v", err)
		}

		seen := 0
		for _, m := range append(work, social...) {
			if m.ID == 2 {
				seen++
			}
		}
		if seen != 1 {
			t.Fatalf("round %d: message 2 appears %d times across Work and Social, want 1", round, seen)
		}
		if len(work)+len(social) != 1 {
			t.Fatalf("round %d: %d messages labeled, want only message 2", round, len(work)+len(social))
		}
	}
}

func TestStoredLabelsOutsideSetReadAsInbox(t *testing.T) {
	ctx := context.Background()
	path := testutil.TestDBPath(t)

	s, err := store.NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	if err := s.ReplaceAll(ctx, testutil.Messages(3)); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	_, err = raw.Exec(`
		UPDATE emails SET category = 'finance' WHERE id = 1;
		UPDATE emails SET category = '' WHERE id = 2;
		UPDATE emails SET category = 'Newsletters' WHERE id = 3;`)
	raw.Close()
	if err != nil {
		t.Fatalf("editing rows: %v", err)
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	want := []model.Category{model.CategoryFinance, model.CategoryInbox, model.CategoryInbox}
	if len(got) != len(want) {
		t.Fatalf("All returned %d messages, want %d", len(got), len(want))
	}
	for i, m := range got {
		if m.Category != want[i] {
			t.Errorf("message %d category = %q, want %q", m.ID, m.Category, want[i])
		}
	}
}
