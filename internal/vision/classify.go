// v1
// internal/vision/classify.go
package vision

import (
	"fmt"
	"math"
	"time"
)

// Label is one of the four discrete postures the classifier can emit.
type Label string

const (
	LabelStanding  Label = "standing"
	LabelSitting   Label = "sitting"
	LabelLyingDown Label = "lying_down"
	LabelRunning   Label = "running"
)

// MinKeypointScore is the confidence floor below which a keypoint is excluded
// from feature derivation.
const MinKeypointScore = 0.2

// Features are the two scalars derived from a keypoint vector that drive the
// posture decision.
type Features struct {
	// AspectRatio is the horizontal over vertical span of the keypoint
	// bounding extent.
	AspectRatio float64
	// VerticalCenter is the normalized vertical position of the keypoint
	// centroid (0 = top of frame, 1 = bottom).
	VerticalCenter float64
}

// Result is a single classification outcome.
type Result struct {
	ID             string    `json:"id"`
	Label          Label     `json:"label"`
	AspectRatio    float64   `json:"aspectRatio"`
	VerticalCenter float64   `json:"verticalCenter"`
	ComputedAt     time.Time `json:"computedAt"`
}

// poseRule pairs a feature predicate with the label it produces. Rules are
// evaluated strictly in order and the first match wins; the later predicates
// overlap in feature space, so reordering changes behaviour.
type poseRule struct {
	match func(Features) bool
	label Label
}

var poseRules = []poseRule{
	{func(f Features) bool { return f.AspectRatio > 1.3 }, LabelStanding},
	{func(f Features) bool { return f.VerticalCenter > 0.6 }, LabelSitting},
	{func(f Features) bool { return f.AspectRatio < 1.0 }, LabelLyingDown},
}

// ClassifyFeatures walks the ordered rule chain and returns the first
// matching label, falling back to running.
func ClassifyFeatures(f Features) Label {
	for _, r := range poseRules {
		if r.match(f) {
			return r.label
		}
	}
	return LabelRunning
}

// DeriveFeatures reduces a flat keypoint vector of (y, x, score) triples to
// the two classifier features. Keypoints below MinKeypointScore are ignored.
func DeriveFeatures(keypoints []float64) (Features, error) {
	if len(keypoints) == 0 || len(keypoints)%3 != 0 {
		return Features{}, fmt.Errorf("%w: length %d is not a positive multiple of 3", ErrMalformedKeypoints, len(keypoints))
	}

	var (
		minX, minY = math.Inf(1), math.Inf(1)
		maxX, maxY = math.Inf(-1), math.Inf(-1)
		sumY       float64
		used       int
	)
	for i := 0; i < len(keypoints); i += 3 {
		y, x, score := keypoints[i], keypoints[i+1], keypoints[i+2]
		if math.IsNaN(y) || math.IsNaN(x) || math.IsNaN(score) {
			return Features{}, fmt.Errorf("%w: NaN at keypoint %d", ErrMalformedKeypoints, i/3)
		}
		if score < MinKeypointScore {
			continue
		}
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		sumY += y
		used++
	}
	if used < 2 {
		return Features{}, fmt.Errorf("%w: only %d keypoints above score %.2f", ErrMalformedKeypoints, used, MinKeypointScore)
	}
	ySpan := maxY - minY
	if ySpan <= 0 {
		return Features{}, fmt.Errorf("%w: degenerate vertical span", ErrMalformedKeypoints)
	}

	return Features{
		AspectRatio:    (maxX - minX) / ySpan,
		VerticalCenter: sumY / float64(used),
	}, nil
}

// Classify maps a raw keypoint vector to a Result stamped with the supplied
// computation time. It is pure: identical inputs always yield identical
// labels and features.
func Classify(keypoints []float64, now time.Time) (Result, error) {
	f, err := DeriveFeatures(keypoints)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Label:          ClassifyFeatures(f),
		AspectRatio:    f.AspectRatio,
		VerticalCenter: f.VerticalCenter,
		ComputedAt:     now,
	}, nil
}
