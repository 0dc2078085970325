package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wattbill/wattbill/pkg/common"
	"github.com/wattbill/wattbill/pkg/types"
)

func testService(t *testing.T, handler http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &Service{
		apiURL:    server.URL,
		apiKey:    "test-key",
		freshness: 30 * time.Minute,
		client:    common.HTTPClient(5 * time.Second),
		cache:     make(map[coord]types.WeatherSnapshot),
		now:       time.Now,
	}, server
}

func TestCurrent(t *testing.T) {
	sunrise := time.Date(2026, 8, 31, 0, 45, 0, 0, time.UTC)
	sunset := time.Date(2026, 8, 31, 13, 30, 0, 0, time.UTC)

	t.Run("parses provider payload", func(t *testing.T) {
		svc, _ := testService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "31.52", r.URL.Query().Get("lat"))
			assert.Equal(t, "74.35", r.URL.Query().Get("lon"))
			assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
			fmt.Fprintf(w, `{"clouds":{"all":40},"sys":{"sunrise":%d,"sunset":%d}}`,
				sunrise.Unix(), sunset.Unix())
		})

		snap, err := svc.Current(context.Background(), 31.52, 74.35)
		require.NoError(t, err)
		assert.Equal(t, 40, snap.CloudCoverPct)
		assert.True(t, snap.Sunrise.Equal(sunrise))
		assert.True(t, snap.Sunset.Equal(sunset))
		assert.Equal(t, 31.52, snap.Latitude)
		assert.False(t, snap.FetchedAt.IsZero())
	})

	t.Run("fresh snapshot is reused", func(t *testing.T) {
		var calls atomic.Int32
		svc, _ := testService(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			fmt.Fprintf(w, `{"clouds":{"all":10},"sys":{"sunrise":%d,"sunset":%d}}`,
				sunrise.Unix(), sunset.Unix())
		})

		_, err := svc.Current(context.Background(), 31.52, 74.35)
		require.NoError(t, err)
		_, err = svc.Current(context.Background(), 31.52, 74.35)
		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load(), "second call should hit the cache")

		// a different coordinate pair misses
		_, err = svc.Current(context.Background(), 24.86, 67.0)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("stale snapshot is refreshed", func(t *testing.T) {
		var calls atomic.Int32
		svc, _ := testService(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			fmt.Fprintf(w, `{"clouds":{"all":10},"sys":{"sunrise":%d,"sunset":%d}}`,
				sunrise.Unix(), sunset.Unix())
		})
		fakeNow := time.Now()
		svc.now = func() time.Time { return fakeNow }

		_, err := svc.Current(context.Background(), 31.52, 74.35)
		require.NoError(t, err)

		fakeNow = fakeNow.Add(31 * time.Minute)
		_, err = svc.Current(context.Background(), 31.52, 74.35)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load(), "stale entry should trigger a refetch")
	})

	t.Run("provider failure propagates", func(t *testing.T) {
		svc, _ := testService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := svc.Current(context.Background(), 31.52, 74.35)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}

func TestValidate(t *testing.T) {
	svc := &Service{apiURL: "https://example.com", apiKey: "k", freshness: time.Minute}
	assert.NoError(t, svc.Validate())

	assert.Error(t, (&Service{apiKey: "k", freshness: time.Minute}).Validate())
	assert.Error(t, (&Service{apiURL: "https://example.com", apiKey: "k"}).Validate())

	// a missing key is a fetch-time error, not a config error
	assert.NoError(t, (&Service{apiURL: "https://example.com", freshness: time.Minute}).Validate())
}
