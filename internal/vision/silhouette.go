// v1
// internal/vision/silhouette.go
package vision

// keypointCount matches the 17-landmark layout used by MoveNet-class pose
// models, which keeps the classifier's feature math identical whichever
// engine is loaded.
const keypointCount = 17

// anchors places each landmark at a fixed fractional position inside the
// subject's bounding box, ordered nose, eyes, ears, shoulders, elbows,
// wrists, hips, knees, ankles.
var anchors = [keypointCount][2]float64{
	{0.05, 0.50}, // nose
	{0.08, 0.42}, {0.08, 0.58}, // eyes
	{0.12, 0.32}, {0.12, 0.68}, // ears
	{0.30, 0.28}, {0.30, 0.72}, // shoulders
	{0.48, 0.20}, {0.48, 0.80}, // elbows
	{0.62, 0.15}, {0.62, 0.85}, // wrists
	{0.60, 0.35}, {0.60, 0.65}, // hips
	{0.80, 0.30}, {0.80, 0.70}, // knees
	{0.95, 0.28}, {0.95, 0.72}, // ankles
}

// SilhouetteEngine is the in-tree inference engine: a deterministic
// luminance-silhouette estimator that stands in for a quantized pose model.
// It extracts the darkest coherent region of the frame as the subject,
// anchors the 17 landmarks inside its bounding box, and scores each landmark
// by local subject density. The scratch buffer is reused across calls, so
// the engine is not safe for concurrent Infer and the adapter serializes it,
// exactly as it would a single-interpreter native runtime.
type SilhouetteEngine struct {
	lum []float32
}

// NewSilhouetteEngine allocates the engine and its working buffer sized for
// the declared input signature.
func NewSilhouetteEngine() *SilhouetteEngine {
	return &SilhouetteEngine{lum: make([]float32, InputHeight*InputWidth)}
}

// Signature declares the same geometry the normalizer produces.
func (e *SilhouetteEngine) Signature() Signature {
	return Signature{
		InputShape:    [4]int{1, InputHeight, InputWidth, InputChannels},
		KeypointCount: keypointCount,
	}
}

// ConcurrencySafe reports false because of the shared scratch buffer.
func (e *SilhouetteEngine) ConcurrencySafe() bool {
	return false
}

// Infer produces a flat (y, x, score) vector of keypointCount triples with
// all values normalized to [0, 1]. Identical tensors yield identical output.
func (e *SilhouetteEngine) Infer(t *Tensor) ([]float64, error) {
	var sum float64
	for i := 0; i < len(e.lum); i++ {
		r := t.Data[i*3]
		g := t.Data[i*3+1]
		b := t.Data[i*3+2]
		l := 0.299*r + 0.587*g + 0.114*b
		e.lum[i] = l
		sum += float64(l)
	}
	threshold := float32(sum / float64(len(e.lum)))

	// Subject = below-mean luminance. A uniform frame has no silhouette; fall
	// back to the full grid so the engine still emits a well-formed vector.
	minX, minY := InputWidth, InputHeight
	maxX, maxY := -1, -1
	fg := 0
	for y := 0; y < InputHeight; y++ {
		for x := 0; x < InputWidth; x++ {
			if e.lum[y*InputWidth+x] >= threshold {
				continue
			}
			fg++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	fallback := fg == 0 || maxX <= minX || maxY <= minY
	if fallback {
		minX, minY, maxX, maxY = 0, 0, InputWidth-1, InputHeight-1
	}

	boxW := float64(maxX - minX)
	boxH := float64(maxY - minY)
	out := make([]float64, 0, keypointCount*3)
	for _, a := range anchors {
		py := float64(minY) + a[0]*boxH
		px := float64(minX) + a[1]*boxW
		score := 1.0
		if !fallback {
			score = e.localDensity(int(px), int(py), threshold)
		}
		out = append(out,
			py/float64(InputHeight-1),
			px/float64(InputWidth-1),
			score,
		)
	}
	return out, nil
}

// localDensity measures the subject-pixel fraction in a small window around
// the anchor, serving as the landmark confidence score.
func (e *SilhouetteEngine) localDensity(cx, cy int, threshold float32) float64 {
	const radius = 6
	dark, total := 0, 0
	for y := cy - radius; y <= cy+radius; y++ {
		if y < 0 || y >= InputHeight {
			continue
		}
		for x := cx - radius; x <= cx+radius; x++ {
			if x < 0 || x >= InputWidth {
				continue
			}
			total++
			if e.lum[y*InputWidth+x] < threshold {
				dark++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(dark) / float64(total)
}
