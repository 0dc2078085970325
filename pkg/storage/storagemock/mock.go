// Package storagemock provides a mock implementation of the storage.Database
// interface for testing.
package storagemock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/wattbill/wattbill/pkg/storage"
	"github.com/wattbill/wattbill/pkg/types"
)

// MockDatabase is a mock implementation of storage.Database.
type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) CreateDevice(ctx context.Context, device types.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockDatabase) GetDevice(ctx context.Context, userID, deviceID string) (types.Device, error) {
	args := m.Called(ctx, userID, deviceID)
	return args.Get(0).(types.Device), args.Error(1)
}

func (m *MockDatabase) GetDeviceByToken(ctx context.Context, token string) (types.Device, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(types.Device), args.Error(1)
}

func (m *MockDatabase) ListDevices(ctx context.Context, userID string) ([]types.Device, error) {
	args := m.Called(ctx, userID)
	var devices []types.Device
	if args.Get(0) != nil {
		devices = args.Get(0).([]types.Device)
	}
	return devices, args.Error(1)
}

func (m *MockDatabase) DeleteDevice(ctx context.Context, userID, deviceID string) error {
	args := m.Called(ctx, userID, deviceID)
	return args.Error(0)
}

func (m *MockDatabase) GetSettings(ctx context.Context, userID string) (types.Settings, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(types.Settings), args.Error(1)
}

func (m *MockDatabase) SetSettings(ctx context.Context, userID string, settings types.Settings) error {
	args := m.Called(ctx, userID, settings)
	return args.Error(0)
}

func (m *MockDatabase) InsertReading(ctx context.Context, deviceID string, sample types.MeterSample) error {
	args := m.Called(ctx, deviceID, sample)
	return args.Error(0)
}

func (m *MockDatabase) GetReadings(ctx context.Context, deviceID string, start, end time.Time, limit int) ([]types.MeterSample, error) {
	args := m.Called(ctx, deviceID, start, end, limit)
	var samples []types.MeterSample
	if args.Get(0) != nil {
		samples = args.Get(0).([]types.MeterSample)
	}
	return samples, args.Error(1)
}

func (m *MockDatabase) GetLatestReading(ctx context.Context, deviceID string) (types.MeterSample, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).(types.MeterSample), args.Error(1)
}

func (m *MockDatabase) InsertSolarSample(ctx context.Context, userID string, sample types.SolarSample) error {
	args := m.Called(ctx, userID, sample)
	return args.Error(0)
}

func (m *MockDatabase) GetSolarHistory(ctx context.Context, userID string, start, end time.Time, limit int) ([]types.SolarSample, error) {
	args := m.Called(ctx, userID, start, end, limit)
	var samples []types.SolarSample
	if args.Get(0) != nil {
		samples = args.Get(0).([]types.SolarSample)
	}
	return samples, args.Error(1)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
