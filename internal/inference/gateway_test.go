package inference

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptedTransport returns the queued replies in order, repeating the last.
type scriptedTransport struct {
	mu        sync.Mutex
	replies   []reply
	calls     int
	requests  []Request
	endpoints []string
}

type reply struct {
	text string
	err  error
}

func (s *scriptedTransport) Generate(ctx context.Context, endpoint string, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	s.endpoints = append(s.endpoints, endpoint)
	r := s.replies[min(s.calls, len(s.replies)-1)]
	s.calls++
	return r.text, r.err
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BreakerFailures = 0
	cfg.Endpoint = func() string { return "http://inference.test/api/generate" }
	return cfg
}

func TestInferSuccess(t *testing.T) {
	tr := &scriptedTransport{replies: []reply{{text: "A short summary."}}}
	g := NewGateway(tr, testConfig())

	res, err := g.Infer(context.Background(), "", "Summarize", 0)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if res.Text != "A short summary." || res.Degraded {
		t.Errorf("Infer = %+v", res)
	}
	if tr.requests[0].Model != "llama3.1:latest" {
		t.Errorf("model = %q, want default", tr.requests[0].Model)
	}
	if tr.requests[0].Options != nil {
		t.Errorf("options = %+v, want omitted", tr.requests[0].Options)
	}
}

func TestInferSendsContextHint(t *testing.T) {
	tr := &scriptedTransport{replies: []reply{{text: "ok"}}}
	g := NewGateway(tr, testConfig())

	if _, err := g.Infer(context.Background(), "custom", "q", 32768); err != nil {
		t.Fatalf("Infer: %v", err)
	}
	req := tr.requests[0]
	if req.Model != "custom" {
		t.Errorf("model = %q, want custom", req.Model)
	}
	if req.Options == nil || req.Options.NumCtx != 32768 {
		t.Errorf("options = %+v, want num_ctx 32768", req.Options)
	}
}

func TestInferEmptyReplyIsDegraded(t *testing.T) {
	tr := &scriptedTransport{replies: []reply{{text: ""}}}
	g := NewGateway(tr, testConfig())

	res, err := g.Infer(context.Background(), "", "p", 0)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if !res.Degraded || res.Text != FallbackText {
		t.Errorf("Infer = %+v, want degraded fallback", res)
	}
	if tr.calls != 1 {
		t.Errorf("transport called %d times, want 1", tr.calls)
	}
}

func TestInferRetriesWithLinearBackoff(t *testing.T) {
	boom := errors.New("connection refused")
	tr := &scriptedTransport{replies: []reply{{err: boom}, {err: boom}, {text: "third time"}}}
	rec := &sleepRecorder{}
	g := NewGateway(tr, testConfig(), WithSleep(rec.sleep))

	res, err := g.Infer(context.Background(), "", "p", 0)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if res.Text != "third time" {
		t.Errorf("text = %q", res.Text)
	}

	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(rec.delays) != len(want) {
		t.Fatalf("slept %v, want %v", rec.delays, want)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, rec.delays[i], want[i])
		}
	}
}

func TestInferUnavailableAfterAllAttempts(t *testing.T) {
	boom := errors.New("status 500")
	tr := &scriptedTransport{replies: []reply{{err: boom}}}
	rec := &sleepRecorder{}
	g := NewGateway(tr, testConfig(), WithSleep(rec.sleep))

	_, err := g.Infer(context.Background(), "", "p", 0)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err %T is not *UnavailableError", err)
	}
	if ue.Attempts != 3 || tr.calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3 and 3", ue.Attempts, tr.calls)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err does not wrap the last transport error")
	}
}

func TestInferAppliesPerAttemptTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxAttempts = 2

	var deadlines []bool
	tr := transportFunc(func(ctx context.Context, _ string, _ Request) (string, error) {
		_, ok := ctx.Deadline()
		deadlines = append(deadlines, ok)
		<-ctx.Done()
		return "", ctx.Err()
	})
	g := NewGateway(tr, cfg, WithSleep(func(context.Context, time.Duration) error { return nil }))

	_, err := g.Infer(context.Background(), "", "p", 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if len(deadlines) != 2 || !deadlines[0] || !deadlines[1] {
		t.Errorf("attempt deadlines = %v, want two bounded attempts", deadlines)
	}
}

func TestInferStopsWhenCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := transportFunc(func(context.Context, string, Request) (string, error) {
		cancel()
		return "", errors.New("refused")
	})
	g := NewGateway(tr, testConfig())

	_, err := g.Infer(ctx, "", "p", 0)
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UnavailableError", err)
	}
	if ue.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 after cancel", ue.Attempts)
	}
}

func TestInferResolvesEndpointPerCall(t *testing.T) {
	endpoint := "http://one/api/generate"
	cfg := testConfig()
	cfg.Endpoint = func() string { return endpoint }

	tr := &scriptedTransport{replies: []reply{{text: "ok"}}}
	g := NewGateway(tr, cfg)

	g.Infer(context.Background(), "", "p", 0)
	endpoint = "http://two/api/generate"
	g.Infer(context.Background(), "", "p", 0)

	if tr.endpoints[0] != "http://one/api/generate" || tr.endpoints[1] != "http://two/api/generate" {
		t.Errorf("endpoints = %v", tr.endpoints)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 1
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = time.Hour

	tr := &scriptedTransport{replies: []reply{{err: errors.New("down")}}}
	g := NewGateway(tr, cfg)

	for i := 0; i < 2; i++ {
		if _, err := g.Infer(context.Background(), "", "p", 0); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: err = %v, want ErrUnavailable", i, err)
		}
	}

	_, err := g.Infer(context.Background(), "", "p", 0)
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UnavailableError", err)
	}
	if ue.Attempts != 0 {
		t.Errorf("attempts = %d, want 0 when breaker is open", ue.Attempts)
	}
	if tr.calls != 2 {
		t.Errorf("transport called %d times, want 2", tr.calls)
	}
}

func TestBreakerCountsDegradedAsSuccess(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 1
	cfg.BreakerFailures = 1
	cfg.BreakerTimeout = time.Hour

	tr := &scriptedTransport{replies: []reply{{text: ""}}}
	g := NewGateway(tr, cfg)

	for i := 0; i < 3; i++ {
		res, err := g.Infer(context.Background(), "", "p", 0)
		if err != nil || !res.Degraded {
			t.Fatalf("call %d: res = %+v, err = %v", i, res, err)
		}
	}
}

type transportFunc func(ctx context.Context, endpoint string, req Request) (string, error)

func (f transportFunc) Generate(ctx context.Context, endpoint string, req Request) (string, error) {
	return f(ctx, endpoint, req)
}
