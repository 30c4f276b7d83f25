package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/neuralmail/internal/model"
)

// AuthError indicates that the mail server rejected the account's
// credentials.
type AuthError struct {
	Account string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Account, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Source produces the message set that replaces the local store on fetch.
type Source interface {
	// Name identifies the source in logs and the status bar.
	Name() string

	// Fetch returns up to limit of the most recent messages, newest first,
	// with ids assigned 1..n in that order. A non-positive limit means the
	// source's own default.
	Fetch(ctx context.Context, limit int) ([]model.Message, error)
}

// AssignIDs numbers msgs 1..n in slice order and resets their labels to
// the default so the categorization worker picks them up.
func AssignIDs(msgs []model.Message) []model.Message {
	for i := range msgs {
		msgs[i].ID = int64(i + 1)
		msgs[i].Category = model.CategoryInbox
	}
	return msgs
}
