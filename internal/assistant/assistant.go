// Package assistant builds prompts for the mail-facing AI operations and
// runs them through the inference gateway.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/neuralmail/internal/inference"
	"github.com/nhle/neuralmail/internal/model"
)

// Inferer is the subset of the inference gateway used here.
type Inferer interface {
	Infer(ctx context.Context, model, prompt string, numCtx int) (inference.Result, error)
}

// MessageLister reads stored messages in scan order.
type MessageLister interface {
	List(ctx context.Context, limit int) ([]model.Message, error)
}

// ValidationError rejects a request before any work is done.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Config holds the tunables for the orchestrators.
type Config struct {
	Model           string
	ChatContext     int
	ContextMessages int
}

// Assistant runs summarize, reply and chat requests. It holds no
// per-request state and is safe for concurrent use.
type Assistant struct {
	gateway Inferer
	store   MessageLister
	cfg     Config
	now     func() time.Time
	logger  *zap.Logger
}

// New creates an Assistant. A nil logger disables logging.
func New(gateway Inferer, store MessageLister, cfg Config, logger *zap.Logger) *Assistant {
	if cfg.ChatContext <= 0 {
		cfg.ChatContext = 32768
	}
	if cfg.ContextMessages <= 0 {
		cfg.ContextMessages = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		gateway: gateway,
		store:   store,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger.Named("assistant"),
	}
}

// SetClock replaces the time source used for greetings.
func (a *Assistant) SetClock(now func() time.Time) {
	a.now = now
}

// Summarize asks for a concise summary of m.
func (a *Assistant) Summarize(ctx context.Context, m model.Message) (inference.Result, error) {
	if err := checkMessage(m); err != nil {
		return inference.Result{}, err
	}
	return a.gateway.Infer(ctx, a.cfg.Model, summarizePrompt(m), 0)
}

// DraftReply asks for a reply body to m. The generated text is returned
// verbatim.
func (a *Assistant) DraftReply(ctx context.Context, m model.Message) (inference.Result, error) {
	if err := checkMessage(m); err != nil {
		return inference.Result{}, err
	}
	return a.gateway.Infer(ctx, a.cfg.Model, replyPrompt(m), 0)
}

// Greet answers a bare greeting locally. ok is false when input is not a
// greeting and must go to Chat instead.
func (a *Assistant) Greet(input string) (reply string, ok bool) {
	if !IsGreeting(input) {
		return "", false
	}
	return GreetingReply(a.now()), true
}

// Chat answers question using up to ContextMessages stored messages as
// context. Greetings are answered without calling the gateway.
func (a *Assistant) Chat(ctx context.Context, question string) (inference.Result, error) {
	if strings.TrimSpace(question) == "" {
		return inference.Result{}, &ValidationError{Field: "question", Reason: "must not be empty"}
	}
	if reply, ok := a.Greet(question); ok {
		return inference.Result{Text: reply}, nil
	}

	msgs, err := a.store.List(ctx, a.cfg.ContextMessages)
	if err != nil {
		return inference.Result{}, fmt.Errorf("loading chat context: %w", err)
	}

	a.logger.Debug("chat request", zap.Int("context_messages", len(msgs)))
	return a.gateway.Infer(ctx, a.cfg.Model, chatPrompt(msgs, question), a.cfg.ChatContext)
}

func checkMessage(m model.Message) error {
	if m.ID == 0 && m.Subject == "" && m.Body == "" {
		return &ValidationError{Field: "message", Reason: "no message selected"}
	}
	return nil
}
