// v1
// internal/breaker/kafka.go
package breaker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// kafkaMessageWriter mirrors the subset of kafka.Writer used by the wrapper.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaBreaker bundles the breaker with its per-call timeout for Kafka
// producer wrappers.
type KafkaBreaker struct {
	enabled bool
	timeout time.Duration
	breaker *Breaker
}

// Enabled reports whether breaker protections are active.
func (k *KafkaBreaker) Enabled() bool {
	return k != nil && k.enabled && k.breaker != nil
}

// NewKafkaBreakerFromEnv builds a KafkaBreaker from environment tunables:
//
//   - CB_ENABLED (default: false)
//   - CB_KAFKA_FAILURE_THRESHOLD (default: 5)
//   - CB_KAFKA_SUCCESS_THRESHOLD (default: 2)
//   - CB_KAFKA_OPEN_SECONDS (default: 30)
//   - CB_KAFKA_TIMEOUT_MS (default: 3000)
func NewKafkaBreakerFromEnv(name string, log *slog.Logger) (*KafkaBreaker, error) {
	enabled, err := envBool("CB_ENABLED", false)
	if err != nil {
		return nil, err
	}
	kb := &KafkaBreaker{enabled: enabled}
	if !enabled {
		return kb, nil
	}

	failures, err := envInt("CB_KAFKA_FAILURE_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	successes, err := envInt("CB_KAFKA_SUCCESS_THRESHOLD", 2)
	if err != nil {
		return nil, err
	}
	openSecs, err := envFloat("CB_KAFKA_OPEN_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	timeoutMs, err := envInt("CB_KAFKA_TIMEOUT_MS", 3000)
	if err != nil {
		return nil, err
	}

	kb.timeout = time.Duration(timeoutMs) * time.Millisecond
	kb.breaker = New(name, Config{
		MaxFailures:      failures,
		ResetTimeout:     time.Duration(openSecs * float64(time.Second)),
		SuccessesToClose: successes,
	}, log)
	return kb, nil
}

// CBKafkaWriter wraps a kafka.Writer behind the breaker, exposing the same
// WriteMessages surface.
type CBKafkaWriter struct {
	inner kafkaMessageWriter
	kb    *KafkaBreaker
}

// NewCBKafkaWriter builds the protected writer. With a disabled breaker the
// wrapper degrades to a passthrough.
func NewCBKafkaWriter(inner kafkaMessageWriter, kb *KafkaBreaker) *CBKafkaWriter {
	return &CBKafkaWriter{inner: inner, kb: kb}
}

// WriteMessages publishes through the breaker, bounding each attempt with the
// configured timeout.
func (w *CBKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if !w.kb.Enabled() {
		return w.inner.WriteMessages(ctx, msgs...)
	}
	return w.kb.breaker.Execute(ctx, func(ctx context.Context) error {
		if w.kb.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, w.kb.timeout)
			defer cancel()
		}
		return w.inner.WriteMessages(ctx, msgs...)
	})
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}
