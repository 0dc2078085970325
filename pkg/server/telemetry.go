package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/wattbill/wattbill/pkg/log"
	"github.com/wattbill/wattbill/pkg/storage"
	"github.com/wattbill/wattbill/pkg/types"
)

// handleTelemetryUpload ingests one meter sample from a device. The device
// identity comes from deviceAuthMiddleware, never from the body.
func (s *Server) handleTelemetryUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	device := s.getDevice(r)

	var sample types.MeterSample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}
	if !validSample(sample) {
		writeJSONError(w, "sample values must be finite and non-negative", http.StatusBadRequest)
		return
	}

	if err := s.storage.InsertReading(ctx, device.ID, sample); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to insert reading", slog.Any("error", err))
		writeJSONError(w, "failed to store reading", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(sample); err != nil {
		panic(http.ErrAbortHandler)
	}
}

// validSample rejects values the accumulator would have to skip anyway.
func validSample(sample types.MeterSample) bool {
	for _, v := range []float64{sample.VoltageV, sample.CurrentA, sample.PowerW, sample.EnergyKWH} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}

// ownedDevice resolves the deviceID query parameter and verifies that the
// logged-in user owns it.
func (s *Server) ownedDevice(w http.ResponseWriter, r *http.Request) (types.Device, bool) {
	ctx := r.Context()
	deviceID := r.URL.Query().Get("deviceID")
	if deviceID == "" {
		writeJSONError(w, "deviceID required", http.StatusBadRequest)
		return types.Device{}, false
	}

	device, err := s.storage.GetDevice(ctx, s.getUser(r).ID, deviceID)
	if err != nil {
		if errors.Is(err, storage.ErrDeviceNotFound) {
			writeJSONError(w, "device not found", http.StatusNotFound)
			return types.Device{}, false
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch device", slog.String("deviceID", deviceID), slog.Any("error", err))
		writeJSONError(w, "failed to fetch device", http.StatusInternalServerError)
		return types.Device{}, false
	}
	return device, true
}

func (s *Server) handleTelemetryLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	device, ok := s.ownedDevice(w, r)
	if !ok {
		return
	}

	sample, err := s.storage.GetLatestReading(ctx, device.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNoReadings) {
			writeJSONError(w, "no readings for device", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch latest reading", slog.String("deviceID", device.ID), slog.Any("error", err))
		writeJSONError(w, "failed to fetch latest reading", http.StatusInternalServerError)
		return
	}

	writeJSON(w, sample)
}

func (s *Server) handleTelemetryRange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	device, ok := s.ownedDevice(w, r)
	if !ok {
		return
	}

	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSONError(w, "invalid time range: "+err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	samples, err := s.storage.GetReadings(ctx, device.ID, start, end, limit)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch readings", slog.String("deviceID", device.ID), slog.Any("error", err))
		writeJSONError(w, "failed to fetch readings", http.StatusInternalServerError)
		return
	}
	if samples == nil {
		samples = []types.MeterSample{}
	}

	writeJSON(w, struct {
		DeviceID string              `json:"deviceID"`
		Count    int                 `json:"count"`
		Samples  []types.MeterSample `json:"samples"`
	}{
		DeviceID: device.ID,
		Count:    len(samples),
		Samples:  samples,
	})
}
