// v2
// internal/vision/normalize.go
package vision

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders for the formats the mobile client uploads.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	xdraw "golang.org/x/image/draw"
)

// Model input geometry. The engine signature is declared against these, so
// the normalizer and adapter stay in lockstep.
const (
	InputHeight   = 160
	InputWidth    = 160
	InputChannels = 3
)

// Tensor is a batched, normalized pixel block of shape (1, H, W, 3) with
// channel values in [0, 1]. It is owned by the request that created it.
type Tensor struct {
	Data  []float32
	Shape [4]int
}

// Normalize converts arbitrary uploaded image bytes into a model-ready
// tensor. The steps run in a fixed order so repeated calls over identical
// bytes produce bit-identical tensors:
//
//  1. decode and convert to RGB,
//  2. apply EXIF orientation so visual "up" is row zero,
//  3. resize to InputWidth x InputHeight with a fixed Catmull-Rom kernel,
//  4. scale [0,255] channels to [0,1],
//  5. prepend the batch dimension.
func Normalize(raw []byte) (*Tensor, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecode, err.Error())
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s image has empty bounds", ErrUnsupportedFormat, format)
	}

	rgba := toRGBA(img)
	rgba = applyOrientation(rgba, readOrientation(raw))

	scaled := image.NewRGBA(image.Rect(0, 0, InputWidth, InputHeight))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), rgba, rgba.Bounds(), xdraw.Src, nil)

	t := &Tensor{
		Data:  make([]float32, InputHeight*InputWidth*InputChannels),
		Shape: [4]int{1, InputHeight, InputWidth, InputChannels},
	}
	i := 0
	for y := 0; y < InputHeight; y++ {
		row := scaled.Pix[y*scaled.Stride : y*scaled.Stride+InputWidth*4]
		for x := 0; x < InputWidth; x++ {
			t.Data[i] = float32(row[x*4]) / 255.0
			t.Data[i+1] = float32(row[x*4+1]) / 255.0
			t.Data[i+2] = float32(row[x*4+2]) / 255.0
			i += 3
		}
	}
	return t, nil
}

// toRGBA flattens any decoded color model (grayscale, paletted, RGBA, YCbCr)
// onto an opaque RGBA grid anchored at the origin.
func toRGBA(img image.Image) *image.RGBA {
	if r, ok := img.(*image.RGBA); ok && r.Bounds().Min == (image.Point{}) {
		return r
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
	return dst
}

// readOrientation extracts the EXIF orientation tag from the original bytes.
// Images without EXIF data (or without the tag) report the identity
// orientation. Correction is applied to pixels only, so a corrected image
// re-entering the normalizer is a no-op.
func readOrientation(raw []byte) int {
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}
