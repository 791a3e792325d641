// v1
// internal/vision/engine_test.go
package vision

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"
)

// stubEngine lets adapter tests control the signature and output.
type stubEngine struct {
	sig  Signature
	out  []float64
	err  error
	safe bool
}

func (s *stubEngine) Signature() Signature  { return s.sig }
func (s *stubEngine) ConcurrencySafe() bool { return s.safe }
func (s *stubEngine) Infer(t *Tensor) ([]float64, error) {
	return s.out, s.err
}

func modelSignature() Signature {
	return Signature{
		InputShape:    [4]int{1, InputHeight, InputWidth, InputChannels},
		KeypointCount: keypointCount,
	}
}

func TestAdapterRejectsShapeMismatch(t *testing.T) {
	adapter, err := NewAdapter(&stubEngine{sig: modelSignature()})
	if err != nil {
		t.Fatalf("adapter init failed: %v", err)
	}

	wrong := &Tensor{
		Data:  make([]float32, 1*120*120*3),
		Shape: [4]int{1, 120, 120, 3},
	}
	if _, err := adapter.Infer(wrong); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	if _, err := adapter.Infer(nil); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch for nil tensor, got %v", err)
	}
}

func TestAdapterRejectsTruncatedData(t *testing.T) {
	adapter, err := NewAdapter(&stubEngine{sig: modelSignature()})
	if err != nil {
		t.Fatalf("adapter init failed: %v", err)
	}
	short := &Tensor{
		Data:  make([]float32, 10),
		Shape: [4]int{1, InputHeight, InputWidth, InputChannels},
	}
	if _, err := adapter.Infer(short); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestSilhouetteEngineEmitsWellFormedVector(t *testing.T) {
	raw := encodePNG(t, 320, 240, image.Rect(60, 80, 260, 180))
	tensor, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	eng := NewSilhouetteEngine()
	kp, err := eng.Infer(tensor)
	if err != nil {
		t.Fatalf("infer failed: %v", err)
	}
	if len(kp) != keypointCount*3 {
		t.Fatalf("expected %d values, got %d", keypointCount*3, len(kp))
	}
	for i, v := range kp {
		if v < 0 || v > 1 {
			t.Fatalf("value %f at %d outside [0,1]", v, i)
		}
	}
}

func TestSilhouetteEngineIsDeterministic(t *testing.T) {
	raw := encodePNG(t, 200, 200, image.Rect(30, 90, 170, 130))
	tensor, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	eng := NewSilhouetteEngine()
	first, err := eng.Infer(tensor)
	if err != nil {
		t.Fatalf("infer failed: %v", err)
	}
	second, err := eng.Infer(tensor)
	if err != nil {
		t.Fatalf("infer failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("outputs differ at %d: %f vs %f", i, first[i], second[i])
		}
	}
}

func newTestPipeline(t *testing.T, eng Engine) *Pipeline {
	t.Helper()
	adapter, err := NewAdapter(eng)
	if err != nil {
		t.Fatalf("adapter init failed: %v", err)
	}
	p, err := NewPipeline(adapter, NewLatestCache(), slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	if err != nil {
		t.Fatalf("pipeline init failed: %v", err)
	}
	return p
}

func TestPipelineProducesOneOfFourLabels(t *testing.T) {
	p := newTestPipeline(t, NewSilhouetteEngine())
	valid := map[Label]bool{
		LabelStanding:  true,
		LabelSitting:   true,
		LabelLyingDown: true,
		LabelRunning:   true,
	}

	shapes := []image.Rectangle{
		image.Rect(10, 140, 310, 220), // wide and low
		image.Rect(130, 10, 190, 230), // tall and narrow
		image.Rect(80, 80, 240, 160),  // squat middle
	}
	for i, subject := range shapes {
		raw := encodePNG(t, 320, 240, subject)
		result, timings, err := p.Classify(raw)
		if err != nil {
			t.Fatalf("shape %d: classify failed: %v", i, err)
		}
		if !valid[result.Label] {
			t.Fatalf("shape %d: label %q is not one of the four postures", i, result.Label)
		}
		if result.ID == "" {
			t.Fatalf("shape %d: result must carry an id", i)
		}
		if timings.Total <= 0 {
			t.Fatalf("shape %d: total timing not recorded", i)
		}

		latest, ok := p.Latest()
		if !ok || latest.ID != result.ID {
			t.Fatalf("shape %d: cache must hold the committed result", i)
		}
	}
}

func TestPipelineFailureLeavesCacheUntouched(t *testing.T) {
	p := newTestPipeline(t, NewSilhouetteEngine())

	raw := encodePNG(t, 100, 100, image.Rect(20, 20, 80, 80))
	committed, _, err := p.Classify(raw)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	if _, _, err := p.Classify([]byte("garbage")); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}

	latest, ok := p.Latest()
	if !ok || latest.ID != committed.ID {
		t.Fatalf("failed request must not disturb the cache")
	}
}

func TestPipelineSurfacesMalformedEngineOutput(t *testing.T) {
	p := newTestPipeline(t, &stubEngine{
		sig: modelSignature(),
		out: []float64{0.1, 0.2}, // not triples
	})

	raw := encodePNG(t, 100, 100, image.Rect(10, 10, 90, 90))
	if _, _, err := p.Classify(raw); !errors.Is(err, ErrMalformedKeypoints) {
		t.Fatalf("expected ErrMalformedKeypoints, got %v", err)
	}
	if _, ok := p.Latest(); ok {
		t.Fatalf("malformed output must not populate the cache")
	}
}
