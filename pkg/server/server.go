package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"
	"github.com/wattbill/wattbill/pkg/log"
	"github.com/wattbill/wattbill/pkg/storage"
	"github.com/wattbill/wattbill/pkg/types"
	"github.com/wattbill/wattbill/pkg/weather"
)

const authTokenCookie = "auth_token"

type contextKey string

const (
	userContextKey   contextKey = "user"
	deviceContextKey contextKey = "device"
)

const (
	defaultRangeLimit = 200
	maxRangeLimit     = 20000
)

// tokenVerifier is a function that validates a Google or Apple ID Token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)

// Server handles the HTTP API for the WattBill system. It orchestrates
// interactions between storage, the weather provider, and the billing
// calculators.
type Server struct {
	storage storage.Database
	weather weather.Source

	listenAddr string
	httpServer *http.Server

	oidcAudiences map[string]string
	oidcVerifiers map[string]tokenVerifier
	bypassAuth    bool
	serverName    string
	location      *time.Location
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(s storage.Database, w weather.Source) *Server {
	srv := &Server{
		storage:    s,
		weather:    w,
		serverName: "wattbill",
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	oidcAudiences := map[string]string{}
	lflag.JSON(&oidcAudiences, "oidc-audiences", oidcAudiences, "JSON map of provider (google/apple) to audience/client ID")
	bypassAuth := lflag.Bool("bypass-auth", false, "Disable login requirement (local development only)")
	timezone := lflag.String("timezone", "Asia/Karachi", "IANA timezone for daily and monthly boundaries")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		srv.bypassAuth = *bypassAuth

		loc, err := time.LoadLocation(*timezone)
		if err != nil {
			log.Ctx(context.Background()).Error("invalid timezone", slog.String("timezone", *timezone), slog.Any("error", err))
			os.Exit(1)
		}
		srv.location = loc

		if len(oidcAudiences) > 0 {
			srv.oidcAudiences = make(map[string]string, len(oidcAudiences))
			srv.oidcVerifiers = make(map[string]tokenVerifier, len(oidcAudiences))
			for n, a := range oidcAudiences {
				var issuer string
				switch n {
				case "google":
					issuer = "https://accounts.google.com"
				case "apple":
					issuer = "https://appleid.apple.com"
				default:
					log.Ctx(context.Background()).Error("unsupported oidc audience client", slog.String("client", n))
					os.Exit(1)
				}
				provider, err := oidc.NewProvider(context.Background(), issuer)
				if err != nil {
					log.Ctx(context.Background()).Error("failed to initialize OIDC provider", slog.String("client", n), slog.Any("error", err))
					os.Exit(1)
				}
				srv.oidcVerifiers[n] = provider.Verifier(&oidc.Config{ClientID: a}).Verify
				srv.oidcAudiences[n] = a
			}
		} else if !srv.bypassAuth {
			log.Ctx(context.Background()).Error("no oidc-audiences configured; pass --bypass-auth to run without login")
			os.Exit(1)
		}
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/telemetry/latest", s.handleTelemetryLatest)
	apiMux.HandleFunc("GET /api/telemetry/range", s.handleTelemetryRange)
	apiMux.HandleFunc("GET /api/summary/today", s.handleSummaryToday)
	apiMux.HandleFunc("GET /api/tariff/calculate", s.handleTariffCalculate)
	apiMux.HandleFunc("GET /api/reports/monthly", s.handleReportsMonthly)
	apiMux.HandleFunc("GET /api/settings", s.handleGetSettings)
	apiMux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	apiMux.HandleFunc("GET /api/solar/status", s.handleSolarStatus)
	apiMux.HandleFunc("GET /api/solar/history", s.handleSolarHistory)
	apiMux.HandleFunc("GET /api/devices", s.handleListDevices)
	apiMux.HandleFunc("POST /api/devices", s.handleCreateDevice)
	apiMux.HandleFunc("DELETE /api/devices/{deviceID}", s.handleDeleteDevice)
	apiMux.HandleFunc("GET /api/auth/status", s.handleAuthStatus)
	apiMux.HandleFunc("POST /api/auth/login", s.handleLogin)
	apiMux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	mux := http.NewServeMux()
	// uploads authenticate with the device token, not a user session
	mux.Handle("POST /api/telemetry/upload", s.deviceAuthMiddleware(http.HandlerFunc(s.handleTelemetryUpload)))
	mux.Handle("/api/", s.authMiddleware(apiMux))
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.serverNameMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

func (s *Server) getUser(r *http.Request) types.User {
	if user, ok := r.Context().Value(userContextKey).(types.User); ok {
		return user
	}
	return types.User{}
}

func (s *Server) getDevice(r *http.Request) types.Device {
	if device, ok := r.Context().Value(deviceContextKey).(types.Device); ok {
		return device
	}
	// we want to have a stack trace when this happens
	panic("no device in context")
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) serverNameMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}

// parseLimit returns the limit query parameter clamped to
// [1, maxRangeLimit], defaulting when absent. A non-numeric value is an
// error, an out-of-range value is not.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultRangeLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q: %w", raw, err)
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxRangeLimit {
		limit = maxRangeLimit
	}
	return limit, nil
}

func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	if fromStr == "" && toStr == "" {
		// Default to last 24 hours if not specified
		end := time.Now()
		start := end.Add(-24 * time.Hour)
		return start, end, nil
	}

	// each bound is independently optional: no from means open start, no to
	// means up to now
	var start time.Time
	var err error
	if fromStr != "" {
		start, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from time: %w", err)
		}
	}

	end := time.Now()
	if toStr != "" {
		end, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to time: %w", err)
		}
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("from time must be before to time")
	}

	return start, end, nil
}
