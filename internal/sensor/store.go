// v2
// internal/sensor/store.go
package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Abhishek5467/dogpose-backend/internal/metrics"
)

// ErrInvalidReading rejects sensor reports with missing or non-finite fields.
// The store is never mutated on rejection.
var ErrInvalidReading = errors.New("invalid sensor reading")

// Source records whether a reading arrived from the device or was
// synthesized by the staleness evaluator.
type Source string

const (
	SourceReported  Source = "reported"
	SourceSynthetic Source = "synthetic"
)

// Reading is the single live environmental sample. Exactly one Reading is
// current at any time; it is replaced wholesale on every accepted write.
type Reading struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Motion      bool      `json:"motion"`
	Timestamp   time.Time `json:"timestamp"`
	Source      Source    `json:"source"`
}

// Policy constants. The threshold and jitter bands are fixed decisions, not
// derived from traffic.
const (
	// StaleThreshold is how long a reading stays trustworthy after its write.
	StaleThreshold = 60 * time.Second
	// DefaultEvaluatorInterval is the cadence of the background staleness check.
	DefaultEvaluatorInterval = 5 * time.Second

	tempJitterC       = 0.4
	humidityJitterPct = 1.5
	motionFlipChance  = 0.05
	minPlausibleTempC = -30.0
	maxPlausibleTempC = 55.0
)

// Store holds the last reported reading and synthesizes plausible substitutes
// when the real feed goes silent. Every write, real or synthetic, is a single
// swap under the lock; readers never observe a partial reading.
type Store struct {
	log *slog.Logger
	now func() time.Time

	mu  sync.Mutex
	cur Reading
	rng *rand.Rand

	// notify, when set, receives a copy of each committed reading outside the
	// lock. It must not block.
	notify func(Reading)
}

// NewStore seeds the store with a synthetic placeholder so readers always
// receive a value, even before the first device report.
func NewStore(log *slog.Logger) *Store {
	return newStore(log, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newStore(log *slog.Logger, now func() time.Time, rng *rand.Rand) *Store {
	return &Store{
		log: log,
		now: now,
		rng: rng,
		cur: Reading{
			Temperature: 22.5,
			Humidity:    45.0,
			Motion:      false,
			Timestamp:   now(),
			Source:      SourceSynthetic,
		},
	}
}

// SetNotify installs the committed-write hook. Call before any writers run.
func (s *Store) SetNotify(fn func(Reading)) {
	s.notify = fn
}

// Report validates and commits a device reading, stamping it with the current
// time. Invalid input leaves the stored reading untouched.
func (s *Store) Report(r Reading) (Reading, error) {
	if err := validate(r); err != nil {
		metrics.IncSensorReport(false)
		return Reading{}, err
	}

	metrics.IncSensorReport(true)
	r.Timestamp = s.now()
	r.Source = SourceReported
	s.commit(r)
	return r, nil
}

// Read returns the current reading plus its freshness: true while the elapsed
// time since the last write is under StaleThreshold. It never blocks on
// writers beyond the swap and never mutates state.
func (s *Store) Read() (Reading, bool) {
	s.mu.Lock()
	r := s.cur
	s.mu.Unlock()
	return r, s.now().Sub(r.Timestamp) < StaleThreshold
}

// EvaluateTick runs one staleness check. When the stored reading has aged past
// StaleThreshold it commits a jittered synthetic reading through the same
// write path as a real report, so readers observe freshness again immediately.
// It reports whether a synthetic reading was written.
func (s *Store) EvaluateTick() bool {
	s.mu.Lock()
	age := s.now().Sub(s.cur.Timestamp)
	metrics.SetReadingAge(age)
	if age < StaleThreshold {
		s.mu.Unlock()
		return false
	}
	next := Reading{
		Temperature: clamp(s.cur.Temperature+(s.rng.Float64()*2-1)*tempJitterC, minPlausibleTempC, maxPlausibleTempC),
		Humidity:    clamp(s.cur.Humidity+(s.rng.Float64()*2-1)*humidityJitterPct, 0, 100),
		Motion:      s.cur.Motion != (s.rng.Float64() < motionFlipChance),
		Timestamp:   s.now(),
		Source:      SourceSynthetic,
	}
	s.cur = next
	s.mu.Unlock()

	metrics.IncSyntheticReading()
	s.log.Info("synthetic_reading_committed",
		slog.Float64("temperature", next.Temperature),
		slog.Float64("humidity", next.Humidity),
		slog.Bool("motion", next.Motion),
	)
	if s.notify != nil {
		s.notify(next)
	}
	return true
}

// Run drives the staleness evaluator on a fixed cadence until the context is
// cancelled. The evaluator talks to the store only through EvaluateTick.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultEvaluatorInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	s.log.Info("staleness_evaluator_started", slog.Duration("interval", interval))
	for {
		select {
		case <-t.C:
			s.EvaluateTick()
		case <-ctx.Done():
			s.log.Info("staleness_evaluator_stopped")
			return
		}
	}
}

func (s *Store) commit(r Reading) {
	s.mu.Lock()
	s.cur = r
	s.mu.Unlock()
	s.log.Info("reading_committed",
		slog.Float64("temperature", r.Temperature),
		slog.Float64("humidity", r.Humidity),
		slog.Bool("motion", r.Motion),
		slog.String("source", string(r.Source)),
	)
	if s.notify != nil {
		s.notify(r)
	}
}

func validate(r Reading) error {
	if math.IsNaN(r.Temperature) || math.IsInf(r.Temperature, 0) {
		return fmt.Errorf("%w: temperature is not finite", ErrInvalidReading)
	}
	if math.IsNaN(r.Humidity) || math.IsInf(r.Humidity, 0) {
		return fmt.Errorf("%w: humidity is not finite", ErrInvalidReading)
	}
	if r.Humidity < 0 || r.Humidity > 100 {
		return fmt.Errorf("%w: humidity %.2f outside [0,100]", ErrInvalidReading, r.Humidity)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
