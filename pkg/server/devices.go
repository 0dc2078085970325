package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wattbill/wattbill/pkg/log"
	"github.com/wattbill/wattbill/pkg/storage"
	"github.com/wattbill/wattbill/pkg/types"
)

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)

	devices, err := s.storage.ListDevices(ctx, user.ID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list devices", slog.Any("error", err))
		writeJSONError(w, "failed to list devices", http.StatusInternalServerError)
		return
	}
	if devices == nil {
		devices = []types.Device{}
	}
	// the token only shows at creation time
	for i := range devices {
		devices[i].Token = ""
	}

	writeJSON(w, devices)
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)

	var req struct {
		Name string `json:"name"`
		Room string `json:"room"`
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSONError(w, "name required", http.StatusBadRequest)
		return
	}

	device := types.Device{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Room:      strings.TrimSpace(req.Room),
		Type:      strings.TrimSpace(req.Type),
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.storage.CreateDevice(ctx, device); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to create device", slog.Any("error", err))
		writeJSONError(w, "failed to create device", http.StatusInternalServerError)
		return
	}

	log.Ctx(ctx).InfoContext(ctx, "device created", slog.String("deviceID", device.ID), slog.String("name", device.Name))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(device); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)
	deviceID := r.PathValue("deviceID")

	if err := s.storage.DeleteDevice(ctx, user.ID, deviceID); err != nil {
		if errors.Is(err, storage.ErrDeviceNotFound) {
			writeJSONError(w, "device not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to delete device", slog.String("deviceID", deviceID), slog.Any("error", err))
		writeJSONError(w, "failed to delete device", http.StatusInternalServerError)
		return
	}

	log.Ctx(ctx).InfoContext(ctx, "device deleted", slog.String("deviceID", deviceID))
	w.WriteHeader(http.StatusNoContent)
}
