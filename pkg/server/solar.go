package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/wattbill/wattbill/pkg/energy"
	"github.com/wattbill/wattbill/pkg/log"
	"github.com/wattbill/wattbill/pkg/solar"
	"github.com/wattbill/wattbill/pkg/storage"
	"github.com/wattbill/wattbill/pkg/types"
)

type solarStatusResponse struct {
	Timestamp     time.Time `json:"timestamp"`
	SolarKW       float64   `json:"solarKW"`
	HomeKW        float64   `json:"homeKW"`
	GridImportKW  float64   `json:"gridImportKW"`
	CloudCoverPct int       `json:"cloudCoverPct"`
	Sunrise       time.Time `json:"sunrise"`
	Sunset        time.Time `json:"sunset"`

	// SavingsPKRPerHour prices the solar generation the home is consuming
	// right now at the stored flat rate.
	SavingsPKRPerHour float64 `json:"savingsPKRPerHour"`
}

func (s *Server) handleSolarStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)
	now := time.Now().In(s.location)

	settings, err := s.storage.GetSettings(ctx, user.ID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get settings", slog.Any("error", err))
		writeJSONError(w, "failed to get settings", http.StatusInternalServerError)
		return
	}
	if !settings.Solar.Enabled {
		writeJSONError(w, "solar is not enabled in settings", http.StatusBadRequest)
		return
	}

	snapshot, err := s.weather.Current(ctx, settings.Solar.Latitude, settings.Solar.Longitude)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch weather", slog.Any("error", err))
		writeJSONError(w, "failed to fetch weather", http.StatusBadGateway)
		return
	}

	solarKW := solar.EstimateKW(settings.Solar.InstalledCapacityKW, snapshot.CloudCoverPct, now, snapshot.Sunrise, snapshot.Sunset)

	homeKW, err := s.currentHomeKW(ctx, user.ID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to compute home load", slog.Any("error", err))
		writeJSONError(w, "failed to compute home load", http.StatusInternalServerError)
		return
	}

	gridImportKW := energy.RoundTo(homeKW-solarKW, 3)
	if gridImportKW < 0 {
		gridImportKW = 0
	}
	consumedSolarKW := min(homeKW, solarKW)

	sample := types.SolarSample{
		Timestamp:     now,
		SolarKW:       solarKW,
		HomeKW:        homeKW,
		GridImportKW:  gridImportKW,
		CloudCoverPct: snapshot.CloudCoverPct,
	}
	// history is best effort, the status response doesn't depend on it
	if err := s.storage.InsertSolarSample(ctx, user.ID, sample); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to store solar sample", slog.Any("error", err))
	}

	writeJSON(w, solarStatusResponse{
		Timestamp:         now,
		SolarKW:           solarKW,
		HomeKW:            homeKW,
		GridImportKW:      gridImportKW,
		CloudCoverPct:     snapshot.CloudCoverPct,
		Sunrise:           snapshot.Sunrise,
		Sunset:            snapshot.Sunset,
		SavingsPKRPerHour: energy.RoundTo(consumedSolarKW*settings.TariffPKRPerKWH, 2),
	})
}

// currentHomeKW sums the most recent power reading of every device. Devices
// that never reported are skipped.
func (s *Server) currentHomeKW(ctx context.Context, userID string) (float64, error) {
	devices, err := s.storage.ListDevices(ctx, userID)
	if err != nil {
		return 0, err
	}

	var totalKW float64
	for _, device := range devices {
		sample, err := s.storage.GetLatestReading(ctx, device.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNoReadings) {
				continue
			}
			return 0, err
		}
		totalKW += sample.PowerW / 1000
	}
	return energy.RoundTo(totalKW, 3), nil
}

func (s *Server) handleSolarHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)

	settings, err := s.storage.GetSettings(ctx, user.ID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get settings", slog.Any("error", err))
		writeJSONError(w, "failed to get settings", http.StatusInternalServerError)
		return
	}
	if !settings.Solar.Enabled {
		writeJSONError(w, "solar is not enabled in settings", http.StatusBadRequest)
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

	samples, err := s.storage.GetSolarHistory(ctx, user.ID, start, end, limit)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch solar history", slog.Any("error", err))
		writeJSONError(w, "failed to fetch solar history", http.StatusInternalServerError)
		return
	}
	if len(samples) == 0 {
		// nothing stored yet, right after setup. Synthesize history from
		// meter readings so the chart isn't blank.
		samples, err = s.estimateHistoryFromTelemetry(ctx, user.ID, settings.Solar, start, end, limit)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to estimate solar history", slog.Any("error", err))
			writeJSONError(w, "failed to estimate solar history", http.StatusBadGateway)
			return
		}
	}
	if samples == nil {
		samples = []types.SolarSample{}
	}

	writeJSON(w, struct {
		Count   int                 `json:"count"`
		Samples []types.SolarSample `json:"samples"`
	}{
		Count:   len(samples),
		Samples: samples,
	})
}

// estimateHistoryFromTelemetry derives solar samples from raw meter readings
// using the current weather snapshot. The cloud cover is today's, applied to
// historical timestamps, so this is only a rough stand-in until real samples
// accumulate.
func (s *Server) estimateHistoryFromTelemetry(ctx context.Context, userID string, cfg types.SolarConfig, start, end time.Time, limit int) ([]types.SolarSample, error) {
	snapshot, err := s.weather.Current(ctx, cfg.Latitude, cfg.Longitude)
	if err != nil {
		return nil, err
	}

	devices, err := s.storage.ListDevices(ctx, userID)
	if err != nil {
		return nil, err
	}

	var readings []types.MeterSample
	for _, device := range devices {
		got, err := s.storage.GetReadings(ctx, device.ID, start, end, limit)
		if err != nil {
			return nil, err
		}
		readings = append(readings, got...)
	}
	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
	if limit > 0 && len(readings) > limit {
		// keep the most recent window, like the stored-sample query
		readings = readings[len(readings)-limit:]
	}

	samples := make([]types.SolarSample, 0, len(readings))
	for _, reading := range readings {
		solarKW := solar.EstimateKW(cfg.InstalledCapacityKW, snapshot.CloudCoverPct, reading.Timestamp, snapshot.Sunrise, snapshot.Sunset)
		homeKW := energy.RoundTo(reading.PowerW/1000, 3)
		gridKW := energy.RoundTo(homeKW-solarKW, 3)
		if gridKW < 0 {
			gridKW = 0
		}
		samples = append(samples, types.SolarSample{
			Timestamp:     reading.Timestamp,
			SolarKW:       solarKW,
			HomeKW:        homeKW,
			GridImportKW:  gridKW,
			CloudCoverPct: snapshot.CloudCoverPct,
		})
	}
	return samples, nil
}
