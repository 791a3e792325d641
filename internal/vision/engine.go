// v1
// internal/vision/engine.go
package vision

import (
	"errors"
	"fmt"
	"sync"
)

// Signature describes the immutable I/O contract of a loaded model.
type Signature struct {
	// InputShape is the batched tensor shape the model accepts.
	InputShape [4]int `json:"inputShape"`
	// KeypointCount is the number of (y, x, score) triples the model emits.
	KeypointCount int `json:"keypointCount"`
}

// Engine is the minimal surface of an on-device inference runtime. The
// concrete engine is injected once at startup and never swapped; callers see
// only the adapter.
type Engine interface {
	// Signature reports the model's declared I/O contract.
	Signature() Signature
	// Infer runs one forward pass and returns the flat keypoint vector.
	Infer(t *Tensor) ([]float64, error)
	// ConcurrencySafe reports whether Infer tolerates concurrent callers.
	// Single-interpreter runtimes return false and the adapter serializes.
	ConcurrencySafe() bool
}

// Adapter validates tensors against the engine signature and serializes
// access when the engine requires it.
type Adapter struct {
	eng       Engine
	sig       Signature
	serialize bool
	mu        sync.Mutex
}

// NewAdapter snapshots the engine signature once. The signature is treated as
// immutable from here on; there is no hot reload.
func NewAdapter(eng Engine) (*Adapter, error) {
	if eng == nil {
		return nil, errors.New("engine must not be nil")
	}
	sig := eng.Signature()
	if sig.KeypointCount <= 0 {
		return nil, fmt.Errorf("engine declares %d keypoints", sig.KeypointCount)
	}
	return &Adapter{eng: eng, sig: sig, serialize: !eng.ConcurrencySafe()}, nil
}

// Signature returns the snapshotted model contract.
func (a *Adapter) Signature() Signature {
	return a.sig
}

// Infer checks the tensor against the declared input signature and delegates
// to the engine. A mismatch is a contract break between the normalizer and
// the loaded model, not a per-request condition.
func (a *Adapter) Infer(t *Tensor) ([]float64, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil tensor", ErrShapeMismatch)
	}
	if t.Shape != a.sig.InputShape {
		return nil, fmt.Errorf("%w: got %v, model expects %v", ErrShapeMismatch, t.Shape, a.sig.InputShape)
	}
	want := t.Shape[0] * t.Shape[1] * t.Shape[2] * t.Shape[3]
	if len(t.Data) != want {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(t.Data), t.Shape)
	}

	if a.serialize {
		a.mu.Lock()
		defer a.mu.Unlock()
	}
	return a.eng.Infer(t)
}
