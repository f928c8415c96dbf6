package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingClient struct {
	calls    int
	failures int
	err      error
	out      string
}

func (c *countingClient) Name() string { return "counting" }
func (c *countingClient) Close() error { return nil }

func (c *countingClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	c.calls++
	if c.calls <= c.failures {
		return "", c.err
	}
	return c.out, nil
}

func TestRetry_RecoversFromTransientError(t *testing.T) {
	inner := &countingClient{failures: 1, err: NewGatewayError(errors.New("timeout")), out: "ok"}
	cli := Wrap(inner, Retry(3, time.Millisecond))

	out, err := cli.Generate(context.Background(), "p", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "ok" || inner.calls != 2 {
		t.Fatalf("out=%q calls=%d", out, inner.calls)
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	inner := &countingClient{failures: 10, err: NewGatewayError(errors.New("down"))}
	cli := Wrap(inner, Retry(2, time.Millisecond))

	_, err := cli.Generate(context.Background(), "p", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 2 {
		t.Fatalf("calls: got=%d want=2", inner.calls)
	}
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("err type: got=%T", err)
	}
}

func TestRetry_PermanentErrorPassesThrough(t *testing.T) {
	inner := &countingClient{failures: 10, err: NewPermanentError(errors.New("bad request"))}
	cli := Wrap(inner, Retry(3, time.Millisecond))

	_, err := cli.Generate(context.Background(), "p", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Fatalf("calls: got=%d want=1 (no retry on permanent error)", inner.calls)
	}
}

func TestWithCache_MemoizesByPromptAndInput(t *testing.T) {
	inner := &countingClient{out: "answer"}
	cli := Wrap(inner, WithCache(8))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cli.Generate(ctx, "p", map[string]any{"k": 1}); err != nil {
			t.Fatalf("generate: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("calls: got=%d want=1", inner.calls)
	}

	if _, err := cli.Generate(ctx, "p", map[string]any{"k": 2}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("calls: got=%d want=2 (different input must miss)", inner.calls)
	}
}

func TestWithCache_DoesNotCacheErrors(t *testing.T) {
	inner := &countingClient{failures: 1, err: NewGatewayError(errors.New("flaky")), out: "ok"}
	cli := Wrap(inner, WithCache(8))
	ctx := context.Background()

	if _, err := cli.Generate(ctx, "p", nil); err == nil {
		t.Fatal("first call should fail")
	}
	out, err := cli.Generate(ctx, "p", nil)
	if err != nil || out != "ok" {
		t.Fatalf("second call: out=%q err=%v", out, err)
	}
}

func TestGatewayErrorClassification(t *testing.T) {
	ge := NewGatewayError(context.DeadlineExceeded)
	if ge.Kind != KindTimeout {
		t.Fatalf("kind: got=%v want=KindTimeout", ge.Kind)
	}
	if !errors.Is(ge, context.DeadlineExceeded) {
		t.Fatal("unwrap lost the cause")
	}

	ge = NewGatewayError(errors.New("http 500"))
	if ge.Kind != KindBackend {
		t.Fatalf("kind: got=%v want=KindBackend", ge.Kind)
	}
}

func TestPhaseFrom(t *testing.T) {
	if got := PhaseFrom(context.Background()); got != "unknown" {
		t.Fatalf("default phase: got=%q", got)
	}
	ctx := WithPhase(context.Background(), "log_analysis")
	if got := PhaseFrom(ctx); got != "log_analysis" {
		t.Fatalf("phase: got=%q", got)
	}
}
