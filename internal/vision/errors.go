// v0
// internal/vision/errors.go
package vision

import "errors"

var (
	// ErrDecode signals that the request bytes could not be parsed as an image.
	ErrDecode = errors.New("image decode failed")
	// ErrUnsupportedFormat signals that the decoded image cannot be converted
	// to three-channel RGB form.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrShapeMismatch signals that a tensor does not match the loaded model's
	// declared input signature. This indicates a normalizer/engine contract
	// break rather than a bad request.
	ErrShapeMismatch = errors.New("tensor shape mismatch")
	// ErrMalformedKeypoints signals that the engine produced a keypoint vector
	// the classifier cannot interpret.
	ErrMalformedKeypoints = errors.New("malformed keypoint vector")
)
