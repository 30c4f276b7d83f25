// Package categorize assigns organizational labels to stored messages in
// the background.
package categorize

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/neuralmail/internal/inference"
	"github.com/nhle/neuralmail/internal/model"
)

// Store is the slice of the mail store the worker reads and writes.
type Store interface {
	List(ctx context.Context, limit int) ([]model.Message, error)
	UpdateCategory(ctx context.Context, id int64, label model.Category) error
}

// Inferer is the subset of the inference gateway used by the worker.
type Inferer interface {
	Infer(ctx context.Context, model, prompt string, numCtx int) (inference.Result, error)
}

// Config tunes a batch.
type Config struct {
	Model     string
	BatchSize int
	BodyChars int
}

// Report summarizes one pass.
type Report struct {
	// Visited counts messages that still carried the default label.
	Visited int

	// Categorized counts messages moved out of Inbox.
	Categorized int

	// Failed counts messages skipped because inference or the write failed.
	Failed int

	// Coalesced is set when the request was folded into a pass already in
	// progress instead of running on its own.
	Coalesced bool

	Labels map[int64]model.Category
}

// Worker labels uncategorized messages one at a time. At most one pass runs
// at a time; requests arriving during a pass schedule a single follow-up.
type Worker struct {
	store   Store
	gateway Inferer
	cfg     Config
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	pending bool
}

// NewWorker creates a Worker. A nil logger disables logging.
func NewWorker(store Store, gateway Inferer, cfg Config, logger *zap.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.BodyChars <= 0 {
		cfg.BodyChars = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		store:   store,
		gateway: gateway,
		cfg:     cfg,
		logger:  logger.Named("categorize"),
	}
}

// Run performs passes until no follow-up is pending. If a pass is already
// running, Run records the request and returns immediately with
// Report.Coalesced set.
func (w *Worker) Run(ctx context.Context) (Report, error) {
	w.mu.Lock()
	if w.running {
		w.pending = true
		w.mu.Unlock()
		return Report{Coalesced: true}, nil
	}
	w.running = true
	w.mu.Unlock()

	// A panicking pass must not leave the worker marked as running.
	finished := false
	defer func() {
		if !finished {
			w.mu.Lock()
			w.running, w.pending = false, false
			w.mu.Unlock()
		}
	}()

	total := Report{Labels: map[int64]model.Category{}}
	for {
		rep, err := w.RunOnce(ctx)
		total.Visited += rep.Visited
		total.Categorized += rep.Categorized
		total.Failed += rep.Failed
		for id, c := range rep.Labels {
			total.Labels[id] = c
		}

		w.mu.Lock()
		again := w.pending && err == nil && ctx.Err() == nil
		w.pending = false
		if !again {
			w.running = false
			finished = true
		}
		w.mu.Unlock()

		if !again {
			return total, err
		}
	}
}

// RunOnce reads up to BatchSize messages in scan order and labels those
// still in Inbox. A failure for one message is logged and skipped; only a
// failure to read the batch aborts the pass.
func (w *Worker) RunOnce(ctx context.Context) (Report, error) {
	msgs, err := w.store.List(ctx, w.cfg.BatchSize)
	if err != nil {
		return Report{}, fmt.Errorf("reading categorization batch: %w", err)
	}

	rep := Report{Labels: map[int64]model.Category{}}
	for _, m := range msgs {
		if !m.NeedsCategory() {
			continue
		}
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		rep.Visited++

		res, err := w.gateway.Infer(ctx, w.cfg.Model, labelPrompt(m, w.cfg.BodyChars), 0)
		if err != nil {
			rep.Failed++
			w.logger.Warn("categorizing message", zap.Int64("id", m.ID), zap.Error(err))
			continue
		}

		label := model.CategoryInbox
		if !res.Degraded {
			label = ParseLabel(res.Text)
		}
		if label == model.CategoryInbox {
			continue
		}

		if err := w.store.UpdateCategory(ctx, m.ID, label); err != nil {
			rep.Failed++
			w.logger.Warn("storing category",
				zap.Int64("id", m.ID), zap.String("label", string(label)), zap.Error(err))
			continue
		}
		rep.Categorized++
		rep.Labels[m.ID] = label
	}

	w.logger.Info("categorization pass complete",
		zap.Int("visited", rep.Visited),
		zap.Int("categorized", rep.Categorized),
		zap.Int("failed", rep.Failed))
	return rep, nil
}
