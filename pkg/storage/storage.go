package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/wattbill/wattbill/pkg/types"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrNoReadings     = errors.New("no readings recorded")
)

// Database defines the interface for persisting devices, telemetry, user
// settings, and solar history.
type Database interface {
	// Devices
	CreateDevice(ctx context.Context, device types.Device) error
	GetDevice(ctx context.Context, userID, deviceID string) (types.Device, error)
	// GetDeviceByToken resolves the device authenticated by an upload token.
	GetDeviceByToken(ctx context.Context, token string) (types.Device, error)
	ListDevices(ctx context.Context, userID string) ([]types.Device, error)
	DeleteDevice(ctx context.Context, userID, deviceID string) error

	// Settings
	GetSettings(ctx context.Context, userID string) (types.Settings, error)
	SetSettings(ctx context.Context, userID string, settings types.Settings) error

	// Telemetry
	InsertReading(ctx context.Context, deviceID string, sample types.MeterSample) error
	// GetReadings returns the most recent limit samples within [start, end],
	// ordered by timestamp ascending. limit <= 0 means no limit.
	GetReadings(ctx context.Context, deviceID string, start, end time.Time, limit int) ([]types.MeterSample, error)
	GetLatestReading(ctx context.Context, deviceID string) (types.MeterSample, error)

	// Solar history
	// InsertSolarSample persists a sample unless one already exists within
	// the dedup window; a concurrent duplicate insert is tolerated.
	InsertSolarSample(ctx context.Context, userID string, sample types.SolarSample) error
	GetSolarHistory(ctx context.Context, userID string, start, end time.Time, limit int) ([]types.SolarSample, error)

	// Lifecycle
	Close() error
}

// Configured sets up the storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
