// v0
// internal/vision/classify_test.go
package vision

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestRuleChainBoundaryExactlyOnePointThree(t *testing.T) {
	// The first rule uses strict >, so exactly 1.3 must fall through the
	// whole chain and land on running.
	got := ClassifyFeatures(Features{AspectRatio: 1.3, VerticalCenter: 0.1})
	if got != LabelRunning {
		t.Fatalf("aspect 1.3 / center 0.1: expected running, got %s", got)
	}
}

func TestRuleChainFirstMatchWinsOnOverlap(t *testing.T) {
	// Both the standing and sitting predicates match; ordering decides.
	got := ClassifyFeatures(Features{AspectRatio: 1.5, VerticalCenter: 0.9})
	if got != LabelStanding {
		t.Fatalf("aspect 1.5 / center 0.9: expected standing, got %s", got)
	}
}

func TestRuleChainLyingDown(t *testing.T) {
	got := ClassifyFeatures(Features{AspectRatio: 0.8, VerticalCenter: 0.2})
	if got != LabelLyingDown {
		t.Fatalf("aspect 0.8 / center 0.2: expected lying_down, got %s", got)
	}
}

func TestRuleChainFallbackRunning(t *testing.T) {
	got := ClassifyFeatures(Features{AspectRatio: 1.1, VerticalCenter: 0.2})
	if got != LabelRunning {
		t.Fatalf("aspect 1.1 / center 0.2: expected running, got %s", got)
	}
}

func TestDeriveFeaturesComputesSpansAndCentroid(t *testing.T) {
	// Two confident keypoints: (y=0.2,x=0.1) and (y=0.6,x=0.9).
	kp := []float64{
		0.2, 0.1, 0.9,
		0.6, 0.9, 0.9,
	}
	f, err := DeriveFeatures(kp)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if math.Abs(f.AspectRatio-2.0) > 1e-9 {
		t.Fatalf("expected aspect ratio 2.0, got %f", f.AspectRatio)
	}
	if math.Abs(f.VerticalCenter-0.4) > 1e-9 {
		t.Fatalf("expected vertical center 0.4, got %f", f.VerticalCenter)
	}
}

func TestDeriveFeaturesIgnoresLowScoreKeypoints(t *testing.T) {
	kp := []float64{
		0.2, 0.1, 0.9,
		0.6, 0.9, 0.9,
		0.0, 0.0, 0.05, // below MinKeypointScore, must not widen the box
	}
	f, err := DeriveFeatures(kp)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if math.Abs(f.AspectRatio-2.0) > 1e-9 {
		t.Fatalf("low-score keypoint leaked into the box: aspect %f", f.AspectRatio)
	}
}

func TestDeriveFeaturesMalformedVectors(t *testing.T) {
	cases := [][]float64{
		nil,
		{},
		{0.1, 0.2},                             // not a multiple of 3
		{0.1, 0.2, 0.01, 0.3, 0.4, 0.02},       // nothing above the score floor
		{0.5, 0.1, 0.9, 0.5, 0.9, 0.9},         // zero vertical span
		{math.NaN(), 0.2, 0.9, 0.5, 0.9, 0.9},  // NaN coordinate
	}
	for i, kp := range cases {
		if _, err := DeriveFeatures(kp); !errors.Is(err, ErrMalformedKeypoints) {
			t.Fatalf("case %d: expected ErrMalformedKeypoints, got %v", i, err)
		}
	}
}

func TestClassifyIsPure(t *testing.T) {
	kp := []float64{
		0.2, 0.1, 0.9,
		0.6, 0.9, 0.9,
	}
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	first, err := Classify(kp, now)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	second, err := Classify(kp, now)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if first != second {
		t.Fatalf("classify must be deterministic: %+v vs %+v", first, second)
	}
	if first.Label != LabelStanding {
		t.Fatalf("aspect 2.0 must classify as standing, got %s", first.Label)
	}
}
