// v2
// internal/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Abhishek5467/dogpose-backend/internal/sensor"
	"github.com/Abhishek5467/dogpose-backend/internal/vision"
)

// Handlers bundles the core services behind the HTTP surface.
type Handlers struct {
	Log       *slog.Logger
	Store     *sensor.Store
	Pipeline  *vision.Pipeline
	MaxUpload int64
}

// sensorReport mirrors the device's JSON body. Pointer fields distinguish
// missing keys from zero values so partial reports are rejected.
type sensorReport struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Motion      bool     `json:"motion"`
}

// ReportSensor accepts one device reading and echoes the stored value (POST).
func (h *Handlers) ReportSensor(w http.ResponseWriter, r *http.Request) {
	var rep sensorReport
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	if err := dec.Decode(&rep); err != nil {
		h.respondError(w, http.StatusBadRequest, "body must be a JSON sensor report")
		return
	}
	if rep.Temperature == nil || rep.Humidity == nil {
		h.respondError(w, http.StatusBadRequest, "temperature and humidity are required numeric fields")
		return
	}

	stored, err := h.Store.Report(sensor.Reading{
		Temperature: *rep.Temperature,
		Humidity:    *rep.Humidity,
		Motion:      rep.Motion,
	})
	if err != nil {
		if errors.Is(err, sensor.ErrInvalidReading) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, "report failed")
		return
	}
	respondJSON(w, http.StatusOK, stored)
}

// ReadSensor returns the current reading plus its freshness flag (GET).
func (h *Handlers) ReadSensor(w http.ResponseWriter, r *http.Request) {
	reading, fresh := h.Store.Read()
	respondJSON(w, http.StatusOK, map[string]any{
		"reading": reading,
		"fresh":   fresh,
	})
}

// ClassifyPose runs the full inference pipeline over an uploaded image (POST,
// multipart field "image").
func (h *Handlers) ClassifyPose(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
		h.respondError(w, http.StatusBadRequest, "expected multipart form with an image field")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(file, h.MaxUpload+1))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	if int64(len(raw)) > h.MaxUpload {
		h.respondError(w, http.StatusRequestEntityTooLarge, "image exceeds upload limit")
		return
	}

	result, _, err := h.Pipeline.Classify(raw)
	if err != nil {
		h.respondClassifyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// LatestPose returns the most recent classification, or an explicit empty
// indicator before the first success (GET).
func (h *Handlers) LatestPose(w http.ResponseWriter, r *http.Request) {
	result, ok := h.Pipeline.Latest()
	if !ok {
		respondJSON(w, http.StatusOK, map[string]any{"available": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"available": true,
		"result":    result,
	})
}

// respondClassifyError maps the pipeline error taxonomy onto status codes.
// Shape mismatches and malformed keypoints are integration faults, not bad
// requests; their internal details stay out of the response body.
func (h *Handlers) respondClassifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vision.ErrDecode):
		h.respondError(w, http.StatusBadRequest, "uploaded bytes are not a decodable image")
	case errors.Is(err, vision.ErrUnsupportedFormat):
		h.respondError(w, http.StatusBadRequest, "image format cannot be converted to RGB")
	case errors.Is(err, vision.ErrShapeMismatch):
		h.respondError(w, http.StatusInternalServerError, "model input contract violated")
	case errors.Is(err, vision.ErrMalformedKeypoints):
		h.respondError(w, http.StatusInternalServerError, "inference produced unusable output")
	default:
		h.respondError(w, http.StatusInternalServerError, "classification failed")
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, code int, msg string) {
	h.Log.Warn("http_error", slog.Int("code", code), slog.String("msg", msg))
	respondJSON(w, code, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
