package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wattbill/wattbill/pkg/log"
	"github.com/wattbill/wattbill/pkg/types"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)

	settings, err := s.storage.GetSettings(ctx, user.ID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get settings", slog.Any("error", err))
		writeJSONError(w, "failed to get settings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)

	var settings types.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := settings.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.storage.SetSettings(ctx, user.ID, settings); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save settings", slog.Any("error", err))
		writeJSONError(w, "failed to save settings", http.StatusInternalServerError)
		return
	}

	log.Ctx(ctx).InfoContext(ctx, "settings updated",
		slog.Float64("tariffPKRPerKWH", settings.TariffPKRPerKWH),
		slog.Bool("solarEnabled", settings.Solar.Enabled),
	)
	writeJSON(w, settings)
}
