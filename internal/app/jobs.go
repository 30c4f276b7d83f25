package app

import (
	"context"
	"fmt"

	"github.com/nhle/neuralmail/internal/bridge"
	"github.com/nhle/neuralmail/internal/categorize"
	"github.com/nhle/neuralmail/internal/inference"
	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/outbox"
)

// request is what the model remembers about an in-flight bridge job.
type request struct {
	op        bridge.Op
	messageID int64
}

// fetchResult is the payload of a successful fetch.
type fetchResult struct {
	source string
	count  int
}

// inFlight reports whether a job of kind op is pending.
func (m Model) inFlight(op bridge.Op) bool {
	for _, r := range m.pending {
		if r.op == op {
			return true
		}
	}
	return false
}

func outcome(res inference.Result, err error) (bridge.Outcome, error) {
	return bridge.Outcome{Text: res.Text, Degraded: res.Degraded}, err
}

// submit hands job to the bridge and records it as pending. The returned
// Pending arrives before any work starts, so callers set their loading
// state right after.
func (m *Model) submit(op bridge.Op, messageID int64, job bridge.Job) bridge.Pending {
	p := m.bridge.Submit(m.session, op, job)
	m.pending[p.RequestID] = request{op: op, messageID: messageID}
	return p
}

func (m *Model) startSummarize(msg model.Message) {
	a := m.assistant
	m.submit(bridge.OpSummarize, msg.ID, func(ctx context.Context) (bridge.Outcome, error) {
		return outcome(a.Summarize(ctx, msg))
	})
}

func (m *Model) startReply(msg model.Message) {
	a := m.assistant
	m.submit(bridge.OpReply, msg.ID, func(ctx context.Context) (bridge.Outcome, error) {
		return outcome(a.DraftReply(ctx, msg))
	})
}

func (m *Model) startChat(question string) {
	a := m.assistant
	m.submit(bridge.OpChat, 0, func(ctx context.Context) (bridge.Outcome, error) {
		return outcome(a.Chat(ctx, question))
	})
}

// startFetch replaces the stored messages with a fresh fetch from the
// active account's source.
func (m *Model) startFetch() {
	if m.inFlight(bridge.OpFetch) {
		return
	}

	mb := m.mailbox
	s := m.store
	limit := m.fetchLimit
	m.submit(bridge.OpFetch, 0, func(ctx context.Context) (bridge.Outcome, error) {
		src, err := mb.Source(ctx)
		if err != nil {
			return bridge.Outcome{}, err
		}
		msgs, err := src.Fetch(ctx, limit)
		if err != nil {
			return bridge.Outcome{}, fmt.Errorf("fetching from %s: %w", src.Name(), err)
		}
		if err := s.ReplaceAll(ctx, msgs); err != nil {
			return bridge.Outcome{}, err
		}
		return bridge.Outcome{Value: fetchResult{source: src.Name(), count: len(msgs)}}, nil
	})
}

// startCategorize runs the worker in the background. Overlapping requests
// are coalesced by the worker itself.
func (m *Model) startCategorize() {
	w := m.worker
	m.submit(bridge.OpCategorize, 0, func(ctx context.Context) (bridge.Outcome, error) {
		report, err := w.Run(ctx)
		return bridge.Outcome{Value: report}, err
	})
}

func (m *Model) startSend(msg model.Message, draft string) {
	mb := m.mailbox
	m.submit(bridge.OpSend, msg.ID, func(ctx context.Context) (bridge.Outcome, error) {
		sender, from, err := mb.Sender(ctx)
		if err != nil {
			return bridge.Outcome{}, err
		}
		out, err := outbox.Reply(from, msg, draft)
		if err != nil {
			return bridge.Outcome{}, err
		}
		if err := sender.Send(ctx, out); err != nil {
			return bridge.Outcome{}, err
		}
		return bridge.Outcome{Text: out.To}, nil
	})
}

// categorizeStatus describes a finished worker run.
func categorizeStatus(r categorize.Report) string {
	switch {
	case r.Coalesced:
		return "Categorization already running; queued another pass."
	case r.Visited == 0:
		return ""
	case r.Failed > 0:
		return fmt.Sprintf("Categorized %d of %d messages (%d failed).", r.Categorized, r.Visited, r.Failed)
	default:
		return fmt.Sprintf("Categorized %d of %d messages.", r.Categorized, r.Visited)
	}
}
