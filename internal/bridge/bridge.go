// Package bridge runs slow work off the UI goroutine and hands each result
// back to the Bubble Tea program as a message.
package bridge

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Op names the kind of background operation.
type Op string

const (
	OpSummarize  Op = "summarize"
	OpReply      Op = "reply"
	OpChat       Op = "chat"
	OpCategorize Op = "categorize"
	OpFetch      Op = "fetch"
	OpSend       Op = "send"
)

// Outcome is what a job produces on success.
type Outcome struct {
	Text     string
	Degraded bool

	// Value carries op-specific payloads such as a fetched message set.
	Value any
}

// Job is the unit of background work. ctx is cancelled when the owning
// session closes.
type Job func(ctx context.Context) (Outcome, error)

// Pending is returned synchronously by Submit. Receiving it is the signal
// that the operation has started.
type Pending struct {
	RequestID string
	Op        Op
}

// ResultMsg is the single terminal message for a submitted job.
type ResultMsg struct {
	RequestID string
	SessionID string
	Op        Op
	Outcome
	Err error
}

// Failed reports whether the job ended in an error.
func (m ResultMsg) Failed() bool { return m.Err != nil }

// Dispatcher posts a message into the presentation context.
// *tea.Program satisfies it.
type Dispatcher interface {
	Send(msg tea.Msg)
}

// Bridge executes jobs on a bounded pool of goroutines.
type Bridge struct {
	dispatcher Dispatcher
	sem        *semaphore.Weighted
	wg         sync.WaitGroup
	logger     *zap.Logger
}

// New creates a Bridge running at most workers jobs at once.
func New(d Dispatcher, workers int, logger *zap.Logger) *Bridge {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		dispatcher: d,
		sem:        semaphore.NewWeighted(int64(workers)),
		logger:     logger.Named("bridge"),
	}
}

// Submit schedules job under sess and returns immediately. Exactly one
// ResultMsg is dispatched when the job ends, unless sess has been closed by
// then, in which case the result is dropped.
func (b *Bridge) Submit(sess *Session, op Op, job Job) Pending {
	p := Pending{RequestID: uuid.NewString(), Op: op}

	if !sess.Live() {
		b.logger.Debug("submit on closed session", zap.String("op", string(op)))
		return p
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ctx := sess.Context()
		if err := b.sem.Acquire(ctx, 1); err != nil {
			b.drop(sess, p, err)
			return
		}
		out, err := run(ctx, job)
		b.sem.Release(1)

		b.deliver(sess, ResultMsg{
			RequestID: p.RequestID,
			SessionID: sess.ID(),
			Op:        op,
			Outcome:   out,
			Err:       err,
		})
	}()

	return p
}

func run(ctx context.Context, job Job) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("background job panicked: %v", r)
		}
	}()
	return job(ctx)
}

func (b *Bridge) deliver(sess *Session, msg ResultMsg) {
	if !sess.Live() {
		b.drop(sess, Pending{RequestID: msg.RequestID, Op: msg.Op}, msg.Err)
		return
	}
	if msg.Err != nil {
		b.logger.Debug("job failed",
			zap.String("op", string(msg.Op)),
			zap.String("request", msg.RequestID),
			zap.Error(msg.Err))
	}
	b.dispatcher.Send(msg)
}

func (b *Bridge) drop(sess *Session, p Pending, err error) {
	b.logger.Debug("dropping result for closed session",
		zap.String("session", sess.ID()),
		zap.String("op", string(p.Op)),
		zap.String("request", p.RequestID),
		zap.Error(err))
}

// Wait blocks until every submitted job has finished.
func (b *Bridge) Wait() {
	b.wg.Wait()
}
