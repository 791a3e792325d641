// v0
// internal/breaker/breaker_test.go
package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New("test", Config{MaxFailures: 2, ResetTimeout: time.Minute, SuccessesToClose: 1}, discardLogger())
	boom := errors.New("downstream down")
	op := func(ctx context.Context) error { return boom }

	for i := 0; i < 2; i++ {
		if err := b.Execute(context.Background(), op); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected downstream error, got %v", i, err)
		}
	}
	if b.State() != Open {
		t.Fatalf("breaker must open after %d failures", 2)
	}
	if err := b.Execute(context.Background(), op); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected fast-fail while open, got %v", err)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := New("test", Config{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond, SuccessesToClose: 2}, discardLogger())
	boom := errors.New("downstream down")

	if err := b.Execute(context.Background(), func(ctx context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected failure, got %v", err)
	}
	if b.State() != Open {
		t.Fatalf("breaker must be open")
	}

	time.Sleep(20 * time.Millisecond)
	ok := func(ctx context.Context) error { return nil }
	if err := b.Execute(context.Background(), ok); err != nil {
		t.Fatalf("half-open probe must pass: %v", err)
	}
	if b.State() != HalfOpen {
		t.Fatalf("one success of two must keep the breaker half-open")
	}
	if err := b.Execute(context.Background(), ok); err != nil {
		t.Fatalf("second probe must pass: %v", err)
	}
	if b.State() != Closed {
		t.Fatalf("breaker must close after the success streak")
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := New("test", Config{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond, SuccessesToClose: 1}, discardLogger())
	boom := errors.New("still down")

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return boom })
	time.Sleep(20 * time.Millisecond)
	if err := b.Execute(context.Background(), func(ctx context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected failure, got %v", err)
	}
	if b.State() != Open {
		t.Fatalf("half-open failure must reopen the breaker")
	}
}

type fakeWriter struct {
	fails int
	calls int
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.calls++
	if f.calls <= f.fails {
		return errors.New("broker unavailable")
	}
	return nil
}

func TestNewKafkaBreakerFromEnv(t *testing.T) {
	t.Setenv("CB_ENABLED", "true")
	t.Setenv("CB_KAFKA_FAILURE_THRESHOLD", "4")
	t.Setenv("CB_KAFKA_SUCCESS_THRESHOLD", "3")
	t.Setenv("CB_KAFKA_OPEN_SECONDS", "0.05")
	t.Setenv("CB_KAFKA_TIMEOUT_MS", "150")

	kb, err := NewKafkaBreakerFromEnv("env-breaker", discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !kb.Enabled() {
		t.Fatalf("expected breaker enabled")
	}
	if kb.timeout != 150*time.Millisecond {
		t.Fatalf("expected timeout 150ms, got %s", kb.timeout)
	}
	if kb.breaker.cfg.MaxFailures != 4 {
		t.Fatalf("expected failure threshold 4, got %d", kb.breaker.cfg.MaxFailures)
	}
	if kb.breaker.cfg.SuccessesToClose != 3 {
		t.Fatalf("expected success threshold 3, got %d", kb.breaker.cfg.SuccessesToClose)
	}
}

func TestKafkaBreakerDisabledByDefault(t *testing.T) {
	t.Setenv("CB_ENABLED", "")
	kb, err := NewKafkaBreakerFromEnv("default", discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kb.Enabled() {
		t.Fatalf("breaker must be disabled without CB_ENABLED")
	}

	inner := &fakeWriter{fails: 1}
	w := NewCBKafkaWriter(inner, kb)
	if err := w.WriteMessages(context.Background(), kafka.Message{Value: []byte("x")}); err == nil {
		t.Fatalf("passthrough must surface the inner error")
	}
	if inner.calls != 1 {
		t.Fatalf("expected one delegate call, got %d", inner.calls)
	}
}

func TestCBKafkaWriterFastFailsWhileOpen(t *testing.T) {
	t.Setenv("CB_ENABLED", "true")
	t.Setenv("CB_KAFKA_FAILURE_THRESHOLD", "1")
	t.Setenv("CB_KAFKA_SUCCESS_THRESHOLD", "1")
	t.Setenv("CB_KAFKA_OPEN_SECONDS", "60")
	t.Setenv("CB_KAFKA_TIMEOUT_MS", "100")

	kb, err := NewKafkaBreakerFromEnv("writer", discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inner := &fakeWriter{fails: 1}
	w := NewCBKafkaWriter(inner, kb)

	if err := w.WriteMessages(context.Background(), kafka.Message{Value: []byte("a")}); err == nil {
		t.Fatalf("first write must fail")
	}
	if err := w.WriteMessages(context.Background(), kafka.Message{Value: []byte("b")}); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected fast-fail, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("open breaker must not reach the writer, calls=%d", inner.calls)
	}
}
