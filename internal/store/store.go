package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/neuralmail/internal/model"
)

// ErrNotFound is wrapped by StorageError when a looked-up row is absent.
var ErrNotFound = errors.New("not found")

// StorageError reports a failed store operation. Op names the operation
// (e.g. "replace all"), Err is the underlying cause.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Store defines the persistence interface for messages, settings and
// configured accounts.
type Store interface {
	// === Messages ===

	ReplaceAll(ctx context.Context, msgs []model.Message) error
	All(ctx context.Context) ([]model.Message, error)
	List(ctx context.Context, limit int) ([]model.Message, error)
	Get(ctx context.Context, id int64) (model.Message, error)
	Search(ctx context.Context, query string) ([]model.Message, error)
	ByCategory(ctx context.Context, label model.Category) ([]model.Message, error)
	UpdateCategory(ctx context.Context, id int64, label model.Category) error
	Count(ctx context.Context) (int, error)

	// === Settings ===

	GetSetting(ctx context.Context, key, def string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// === Accounts ===

	UpsertAccount(ctx context.Context, acct model.Account) error
	GetAccounts(ctx context.Context) ([]model.Account, error)
	DeleteAccount(ctx context.Context, email string) error

	Close() error
}
