package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wattbill/wattbill/pkg/types"
)

func TestHandleGetSettings(t *testing.T) {
	ms := &mockStorage{}
	srv := newTestServer(ms, &mockWeather{})
	handler := srv.setupHandler()

	stored := types.Settings{
		TariffPKRPerKWH: 22.5,
		Solar: types.SolarConfig{
			Enabled:             true,
			InstalledCapacityKW: 3,
			Latitude:            24.86,
			Longitude:           67.01,
		},
	}
	ms.On("GetSettings", mock.Anything, "local").Return(stored, nil)

	req := httptest.NewRequest("GET", "/api/settings", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	var got types.Settings
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, stored, got)
}

func TestHandleUpdateSettings(t *testing.T) {
	t.Run("saves valid settings", func(t *testing.T) {
		ms := &mockStorage{}
		srv := newTestServer(ms, &mockWeather{})
		handler := srv.setupHandler()

		ms.On("SetSettings", mock.Anything, "local", mock.MatchedBy(func(s types.Settings) bool {
			return s.TariffPKRPerKWH == 18 && s.Solar.Enabled
		})).Return(nil)

		body := `{"tariffPKRPerKWH":18,"solar":{"enabled":true,"installedCapacityKW":5,"latitude":24.86,"longitude":67.01}}`
		req := httptest.NewRequest("PUT", "/api/settings", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Result().StatusCode)
		ms.AssertExpectations(t)
	})

	t.Run("rejects tariff above cap", func(t *testing.T) {
		ms := &mockStorage{}
		srv := newTestServer(ms, &mockWeather{})
		handler := srv.setupHandler()

		req := httptest.NewRequest("PUT", "/api/settings", strings.NewReader(`{"tariffPKRPerKWH":60}`))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
		ms.AssertNotCalled(t, "SetSettings", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects out-of-range coordinates", func(t *testing.T) {
		ms := &mockStorage{}
		srv := newTestServer(ms, &mockWeather{})
		handler := srv.setupHandler()

		body := `{"tariffPKRPerKWH":18,"solar":{"enabled":true,"installedCapacityKW":5,"latitude":95,"longitude":67.01}}`
		req := httptest.NewRequest("PUT", "/api/settings", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})
}
