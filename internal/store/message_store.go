package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/neuralmail/internal/model"
)

// Legacy rows may hold NULLs in the text columns.
const messageColumns = `id,
	COALESCE(subject, '')  AS subject,
	COALESCE(sender, '')   AS sender,
	COALESCE(date_str, '') AS date_str,
	COALESCE(body, '')     AS body,
	COALESCE(has_attachment, 0) AS has_attachment,
	category`

type messageRow struct {
	ID            int64  `db:"id"`
	Subject       string `db:"subject"`
	Sender        string `db:"sender"`
	DateStr       string `db:"date_str"`
	Body          string `db:"body"`
	HasAttachment int    `db:"has_attachment"`
	Category      string `db:"category"`
}

func (r messageRow) toModel() model.Message {
	return model.Message{
		ID:            r.ID,
		Subject:       r.Subject,
		Sender:        r.Sender,
		DateLabel:     r.DateStr,
		Body:          r.Body,
		HasAttachment: r.HasAttachment != 0,
		Category:      model.ParseCategory(r.Category),
	}
}

func toMessages(rows []messageRow) []model.Message {
	msgs := make([]model.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.toModel())
	}
	return msgs
}

// ReplaceAll atomically swaps the stored message set for msgs. On any
// failure the transaction is rolled back and the previous contents remain.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, msgs []model.Message) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("replace all", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM emails"); err != nil {
		return storageErr("replace all", fmt.Errorf("clearing emails: %w", err))
	}

	const query = `
		INSERT INTO emails (
			id, subject, sender, date_str, body, has_attachment, category
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return storageErr("replace all", fmt.Errorf("preparing insert statement: %w", err))
	}
	defer stmt.Close()

	for _, m := range msgs {
		var id any
		if m.ID != 0 {
			id = m.ID
		}
		category := m.Category
		if !category.Valid() {
			category = model.CategoryInbox
		}

		if _, err := stmt.ExecContext(ctx,
			id, m.Subject, m.Sender, m.DateLabel, m.Body,
			boolToInt(m.HasAttachment), string(category),
		); err != nil {
			return storageErr("replace all", fmt.Errorf("inserting message %d: %w", m.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("replace all", fmt.Errorf("committing: %w", err))
	}

	s.logger.Debug("replaced messages", zap.Int("count", len(msgs)))
	return nil
}

// All returns every stored message in natural scan order.
func (s *SQLiteStore) All(ctx context.Context) ([]model.Message, error) {
	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+messageColumns+" FROM emails ORDER BY id")
	if err != nil {
		return nil, storageErr("all", err)
	}
	return toMessages(rows), nil
}

// List returns at most limit messages in scan order. A non-positive limit
// returns everything.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]model.Message, error) {
	if limit <= 0 {
		return s.All(ctx)
	}

	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+messageColumns+" FROM emails ORDER BY id LIMIT ?", limit)
	if err != nil {
		return nil, storageErr("list", err)
	}
	return toMessages(rows), nil
}

// Get returns a single message by id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (model.Message, error) {
	var row messageRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+messageColumns+" FROM emails WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Message{}, storageErr("get", fmt.Errorf("message %d: %w", id, ErrNotFound))
	}
	if err != nil {
		return model.Message{}, storageErr("get", err)
	}
	return row.toModel(), nil
}

// Search returns messages whose subject, sender or body contains query.
// Matching is case-insensitive for ASCII letters. LIKE wildcards in the query
// match literally. A blank query behaves like All.
func (s *SQLiteStore) Search(ctx context.Context, query string) ([]model.Message, error) {
	if strings.TrimSpace(query) == "" {
		return s.All(ctx)
	}

	pattern := "%" + escapeLike(query) + "%"

	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+messageColumns+` FROM emails
		WHERE subject LIKE ? ESCAPE '\'
		   OR sender  LIKE ? ESCAPE '\'
		   OR body    LIKE ? ESCAPE '\'
		ORDER BY id`,
		pattern, pattern, pattern,
	)
	if err != nil {
		return nil, storageErr("search", err)
	}
	return toMessages(rows), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ByCategory returns messages whose label equals label exactly.
func (s *SQLiteStore) ByCategory(ctx context.Context, label model.Category) ([]model.Message, error) {
	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+messageColumns+" FROM emails WHERE category = ? ORDER BY id",
		string(label),
	)
	if err != nil {
		return nil, storageErr("by category", err)
	}
	return toMessages(rows), nil
}

// UpdateCategory relabels one message. Unknown labels are stored as Inbox.
// A missing id is not an error.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, id int64, label model.Category) error {
	if !label.Valid() {
		label = model.ParseCategory(string(label))
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE emails SET category = ? WHERE id = ?", string(label), id)
	if err != nil {
		return storageErr("update category", fmt.Errorf("message %d: %w", id, err))
	}
	return nil
}

// Count returns the number of stored messages.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM emails"); err != nil {
		return 0, storageErr("count", err)
	}
	return n, nil
}
