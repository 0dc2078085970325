package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wattbill/wattbill/pkg/energy"
)

func TestEstimateKW(t *testing.T) {
	sunrise := time.Date(2026, 8, 31, 5, 45, 0, 0, time.UTC)
	sunset := time.Date(2026, 8, 31, 18, 30, 0, 0, time.UTC)
	midday := sunrise.Add(sunset.Sub(sunrise) / 2)

	t.Run("zero capacity", func(t *testing.T) {
		assert.Zero(t, EstimateKW(0, 0, midday, sunrise, sunset))
		assert.Zero(t, EstimateKW(-5, 0, midday, sunrise, sunset))
	})

	t.Run("before sunrise and after sunset", func(t *testing.T) {
		assert.Zero(t, EstimateKW(5, 0, sunrise.Add(-time.Minute), sunrise, sunset))
		assert.Zero(t, EstimateKW(5, 0, sunset.Add(time.Minute), sunrise, sunset))
	})

	t.Run("exactly at sunrise and sunset", func(t *testing.T) {
		assert.Zero(t, EstimateKW(5, 0, sunrise, sunrise, sunset))
		assert.Zero(t, EstimateKW(5, 0, sunset, sunrise, sunset))
	})

	t.Run("clear sky peak equals capacity", func(t *testing.T) {
		assert.InDelta(t, 5.0, EstimateKW(5, 0, midday, sunrise, sunset), 0.001)
	})

	t.Run("full overcast retains a quarter of output", func(t *testing.T) {
		clear := EstimateKW(8, 0, midday, sunrise, sunset)
		overcast := EstimateKW(8, 100, midday, sunrise, sunset)
		assert.InDelta(t, clear*0.25, overcast, 0.001)
	})

	t.Run("half cover attenuation", func(t *testing.T) {
		// cloudFactor = 1 - 0.5*0.75 = 0.625
		assert.InDelta(t, 5*0.625, EstimateKW(5, 50, midday, sunrise, sunset), 0.001)
	})

	t.Run("symmetric about midday", func(t *testing.T) {
		early := EstimateKW(5, 20, sunrise.Add(2*time.Hour), sunrise, sunset)
		late := EstimateKW(5, 20, sunset.Add(-2*time.Hour), sunrise, sunset)
		assert.InDelta(t, early, late, 0.001)
	})

	t.Run("rounded to 3 decimals", func(t *testing.T) {
		got := EstimateKW(3.3333, 17, sunrise.Add(90*time.Minute), sunrise, sunset)
		assert.Equal(t, energy.RoundTo(got, 3), got, "value should already be rounded to 3 decimals")
	})

	t.Run("degenerate zero-length daylight", func(t *testing.T) {
		assert.Zero(t, EstimateKW(5, 0, sunrise, sunrise, sunrise))
	})
}

func TestAnnualOffsetKWH(t *testing.T) {
	t.Run("capped at half of household total", func(t *testing.T) {
		// 5kW * 4h * 365d * 0.7 = 5110 kWh, far above half of 2000
		solarKWH, gridKWH := AnnualOffsetKWH(5, 2000)
		assert.Equal(t, 1000.0, solarKWH)
		assert.Equal(t, 1000.0, gridKWH)
	})

	t.Run("small install below the cap", func(t *testing.T) {
		// 0.5kW * 4 * 365 * 0.7 = 511 kWh < half of 2000
		solarKWH, gridKWH := AnnualOffsetKWH(0.5, 2000)
		assert.InDelta(t, 511, solarKWH, 1e-9)
		assert.InDelta(t, 1489, gridKWH, 1e-9)
	})

	t.Run("no consumption", func(t *testing.T) {
		solarKWH, gridKWH := AnnualOffsetKWH(5, 0)
		assert.Zero(t, solarKWH)
		assert.Zero(t, gridKWH)
	})
}
