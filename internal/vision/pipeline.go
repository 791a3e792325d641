// v2
// internal/vision/pipeline.go
package vision

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Abhishek5467/dogpose-backend/internal/metrics"
)

// StageTimings records how long each pipeline stage took for one request.
type StageTimings struct {
	Normalize time.Duration
	Inference time.Duration
	Classify  time.Duration
	Total     time.Duration
}

// Pipeline runs the full upload path: normalize, infer, classify, commit to
// the latest-result cache. Failures at any stage leave the cache untouched.
type Pipeline struct {
	adapter *Adapter
	cache   *LatestCache
	log     *slog.Logger
	now     func() time.Time
	notify  func(Result)
}

// NewPipeline wires the pipeline around an engine adapter and result cache.
// notify, when non-nil, is invoked after each committed result; it must not
// block.
func NewPipeline(adapter *Adapter, cache *LatestCache, log *slog.Logger, notify func(Result)) (*Pipeline, error) {
	if adapter == nil {
		return nil, errors.New("adapter must not be nil")
	}
	if cache == nil {
		return nil, errors.New("cache must not be nil")
	}
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	return &Pipeline{adapter: adapter, cache: cache, log: log, now: time.Now, notify: notify}, nil
}

// Classify maps raw uploaded bytes to a posture result. Exactly four labels
// are reachable; every other outcome is an error from the taxonomy in this
// package and the cache keeps its previous value.
func (p *Pipeline) Classify(raw []byte) (Result, StageTimings, error) {
	var tm StageTimings
	start := p.now()

	tensor, err := Normalize(raw)
	tm.Normalize = p.now().Sub(start)
	metrics.ObservePipelineStage("normalize", tm.Normalize)
	if err != nil {
		metrics.IncPipelineFailure("normalize")
		p.log.Warn("normalize_failed", slog.Any("err", err), slog.Int("bytes", len(raw)))
		return Result{}, tm, err
	}

	inferStart := p.now()
	keypoints, err := p.adapter.Infer(tensor)
	tm.Inference = p.now().Sub(inferStart)
	metrics.ObservePipelineStage("inference", tm.Inference)
	if err != nil {
		metrics.IncPipelineFailure("inference")
		p.log.Error("inference_failed", slog.Any("err", err))
		return Result{}, tm, err
	}

	classifyStart := p.now()
	result, err := Classify(keypoints, p.now())
	tm.Classify = p.now().Sub(classifyStart)
	tm.Total = p.now().Sub(start)
	metrics.ObservePipelineStage("classify", tm.Classify)
	if err != nil {
		metrics.IncPipelineFailure("classify")
		p.log.Error("classify_failed", slog.Any("err", err), slog.Int("keypoints", len(keypoints)))
		return Result{}, tm, err
	}

	result.ID = uuid.NewString()
	p.cache.Put(result)
	metrics.IncClassification(string(result.Label))
	p.log.Info("pose_classified",
		slog.String("id", result.ID),
		slog.String("label", string(result.Label)),
		slog.Float64("aspectRatio", result.AspectRatio),
		slog.Float64("verticalCenter", result.VerticalCenter),
		slog.Duration("total", tm.Total),
	)
	if p.notify != nil {
		p.notify(result)
	}
	return result, tm, nil
}

// Latest exposes the cache read for the HTTP surface.
func (p *Pipeline) Latest() (Result, bool) {
	return p.cache.Get()
}
