package server

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/wattbill/wattbill/pkg/types"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) CreateDevice(ctx context.Context, device types.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *mockStorage) GetDevice(ctx context.Context, userID, deviceID string) (types.Device, error) {
	args := m.Called(ctx, userID, deviceID)
	if len(args) > 0 {
		return args.Get(0).(types.Device), args.Error(1)
	}
	return types.Device{}, nil
}

func (m *mockStorage) GetDeviceByToken(ctx context.Context, token string) (types.Device, error) {
	args := m.Called(ctx, token)
	if len(args) > 0 {
		return args.Get(0).(types.Device), args.Error(1)
	}
	return types.Device{}, nil
}

func (m *mockStorage) ListDevices(ctx context.Context, userID string) ([]types.Device, error) {
	args := m.Called(ctx, userID)
	if len(args) > 0 {
		return args.Get(0).([]types.Device), args.Error(1)
	}
	return nil, nil
}

func (m *mockStorage) DeleteDevice(ctx context.Context, userID, deviceID string) error {
	args := m.Called(ctx, userID, deviceID)
	return args.Error(0)
}

func (m *mockStorage) GetSettings(ctx context.Context, userID string) (types.Settings, error) {
	args := m.Called(ctx, userID)
	if len(args) > 0 {
		return args.Get(0).(types.Settings), args.Error(1)
	}
	return types.Settings{}, nil
}

func (m *mockStorage) SetSettings(ctx context.Context, userID string, settings types.Settings) error {
	args := m.Called(ctx, userID, settings)
	return args.Error(0)
}

func (m *mockStorage) InsertReading(ctx context.Context, deviceID string, sample types.MeterSample) error {
	args := m.Called(ctx, deviceID, sample)
	return args.Error(0)
}

func (m *mockStorage) GetReadings(ctx context.Context, deviceID string, start, end time.Time, limit int) ([]types.MeterSample, error) {
	args := m.Called(ctx, deviceID, start, end, limit)
	if len(args) > 0 {
		return args.Get(0).([]types.MeterSample), args.Error(1)
	}
	return nil, nil
}

func (m *mockStorage) GetLatestReading(ctx context.Context, deviceID string) (types.MeterSample, error) {
	args := m.Called(ctx, deviceID)
	if len(args) > 0 {
		return args.Get(0).(types.MeterSample), args.Error(1)
	}
	return types.MeterSample{}, nil
}

func (m *mockStorage) InsertSolarSample(ctx context.Context, userID string, sample types.SolarSample) error {
	args := m.Called(ctx, userID, sample)
	return args.Error(0)
}

func (m *mockStorage) GetSolarHistory(ctx context.Context, userID string, start, end time.Time, limit int) ([]types.SolarSample, error) {
	args := m.Called(ctx, userID, start, end, limit)
	if len(args) > 0 {
		return args.Get(0).([]types.SolarSample), args.Error(1)
	}
	return nil, nil
}

func (m *mockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}

type mockWeather struct {
	mock.Mock
}

func (m *mockWeather) Current(ctx context.Context, lat, lon float64) (types.WeatherSnapshot, error) {
	args := m.Called(ctx, lat, lon)
	if len(args) > 0 {
		return args.Get(0).(types.WeatherSnapshot), args.Error(1)
	}
	return types.WeatherSnapshot{}, nil
}

// newTestServer builds a Server with auth bypassed, suitable for exercising
// handlers through setupHandler.
func newTestServer(ms *mockStorage, mw *mockWeather) *Server {
	return &Server{
		storage:    ms,
		weather:    mw,
		bypassAuth: true,
		serverName: "wattbill-test",
		location:   time.UTC,
	}
}
