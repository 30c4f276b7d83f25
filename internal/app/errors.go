package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/neuralmail/internal/assistant"
	"github.com/nhle/neuralmail/internal/credential"
	"github.com/nhle/neuralmail/internal/inference"
	"github.com/nhle/neuralmail/internal/outbox"
	"github.com/nhle/neuralmail/internal/source"
	"github.com/nhle/neuralmail/internal/store"
)

// userMessage turns an error into the one line shown in the status bar.
func userMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		unavailable *inference.UnavailableError
		validation  *assistant.ValidationError
		storage     *store.StorageError
		auth        *source.AuthError
	)

	switch {
	case errors.As(err, &unavailable):
		if unavailable.Attempts == 0 {
			return "AI service is paused after repeated failures. Try again shortly."
		}
		return "AI service unavailable. Is the local model server running?"
	case errors.Is(err, inference.ErrUnavailable):
		return "AI service unavailable. Is the local model server running?"
	case errors.As(err, &validation):
		return "Can't do that: " + validation.Reason
	case errors.As(err, &auth):
		return fmt.Sprintf("Login failed for %s: %s", auth.Account, auth.Message)
	case errors.Is(err, credential.ErrNotFound):
		return "No saved password for this account. Press A to enter it."
	case errors.Is(err, ErrNoAccount):
		return "No mail account configured. Press A to add one."
	case errors.Is(err, outbox.ErrNoRecipient):
		return "Can't reply: the sender has no usable address."
	case errors.As(err, &storage):
		return fmt.Sprintf("Storage error while trying to %s.", storage.Op)
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	default:
		return "Error: " + err.Error()
	}
}
