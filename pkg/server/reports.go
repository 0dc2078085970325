package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/wattbill/wattbill/pkg/energy"
	"github.com/wattbill/wattbill/pkg/log"
	"github.com/wattbill/wattbill/pkg/report"
	"github.com/wattbill/wattbill/pkg/storage"
)

// gatherSeries loads every device of the user along with its readings over
// [start, end]. Unlimited fetch: the calculators need the full chain of
// cumulative counters, not a page of it.
func (s *Server) gatherSeries(ctx context.Context, userID string, start, end time.Time) ([]report.DeviceSeries, error) {
	devices, err := s.storage.ListDevices(ctx, userID)
	if err != nil {
		return nil, err
	}

	series := make([]report.DeviceSeries, 0, len(devices))
	for _, device := range devices {
		samples, err := s.storage.GetReadings(ctx, device.ID, start, end, 0)
		if err != nil {
			return nil, err
		}
		series = append(series, report.DeviceSeries{
			Device:  device,
			Samples: samples,
		})
	}
	return series, nil
}

// monthsStart returns the start of the oldest of the n calendar months
// ending at ref.
func monthsStart(ref time.Time, n int) time.Time {
	wins := energy.MonthWindows(ref, n)
	return wins[len(wins)-1].Start
}

func (s *Server) handleSummaryToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)
	now := time.Now().In(s.location)

	settings, err := s.storage.GetSettings(ctx, user.ID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get settings", slog.Any("error", err))
		writeJSONError(w, "failed to get settings", http.StatusInternalServerError)
		return
	}

	win := energy.TodayWindow(now)

	var series []report.DeviceSeries
	if deviceID := r.URL.Query().Get("deviceID"); deviceID != "" {
		// narrow the summary to a single owned device
		device, err := s.storage.GetDevice(ctx, user.ID, deviceID)
		if err != nil {
			if errors.Is(err, storage.ErrDeviceNotFound) {
				writeJSONError(w, "device not found", http.StatusNotFound)
				return
			}
			log.Ctx(ctx).ErrorContext(ctx, "failed to fetch device", slog.String("deviceID", deviceID), slog.Any("error", err))
			writeJSONError(w, "failed to fetch device", http.StatusInternalServerError)
			return
		}
		samples, err := s.storage.GetReadings(ctx, device.ID, win.Start, now, 0)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to gather readings", slog.Any("error", err))
			writeJSONError(w, "failed to gather readings", http.StatusInternalServerError)
			return
		}
		series = []report.DeviceSeries{{Device: device, Samples: samples}}
	} else {
		series, err = s.gatherSeries(ctx, user.ID, win.Start, now)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to gather readings", slog.Any("error", err))
			writeJSONError(w, "failed to gather readings", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, report.SummarizeToday(series, now, settings.TariffPKRPerKWH))
}

func (s *Server) handleTariffCalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)
	now := time.Now().In(s.location)

	series, err := s.gatherSeries(ctx, user.ID, monthsStart(now, report.TariffWindowMonths), now)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to gather readings", slog.Any("error", err))
		writeJSONError(w, "failed to gather readings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, report.AssessTariff(series, now))
}

func (s *Server) handleReportsMonthly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)
	now := time.Now().In(s.location)

	settings, err := s.storage.GetSettings(ctx, user.ID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get settings", slog.Any("error", err))
		writeJSONError(w, "failed to get settings", http.StatusInternalServerError)
		return
	}

	series, err := s.gatherSeries(ctx, user.ID, monthsStart(now, report.ReportWindowMonths), now)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to gather readings", slog.Any("error", err))
		writeJSONError(w, "failed to gather readings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, report.BuildSummary(series, now, settings.TariffPKRPerKWH, settings.Solar))
}
