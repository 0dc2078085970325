package energy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wattbill/wattbill/pkg/types"
)

func samplesAt(base time.Time, step time.Duration, energies ...float64) []types.MeterSample {
	out := make([]types.MeterSample, len(energies))
	for i, e := range energies {
		out[i] = types.MeterSample{
			Timestamp: base.Add(time.Duration(i) * step),
			EnergyKWH: e,
		}
	}
	return out
}

func TestAccumulate(t *testing.T) {
	base := time.Date(2026, 8, 15, 8, 0, 0, 0, time.UTC)
	wide := Window{Start: base.Add(-time.Hour), End: base.Add(24 * time.Hour)}

	t.Run("monotonic series equals last minus first", func(t *testing.T) {
		s := samplesAt(base, time.Minute, 10.0, 10.2, 10.7, 11.35)
		assert.InDelta(t, 1.35, Accumulate(s, wide, DailyPrecision), 1e-9)
	})

	t.Run("counter reset is dropped not subtracted", func(t *testing.T) {
		// (10.5-10.0) + (3.8-3.0) = 1.3; the 10.5->3.0 reset contributes nothing
		s := samplesAt(base, time.Minute, 10.0, 10.5, 3.0, 3.8)
		assert.InDelta(t, 1.3, Accumulate(s, wide, DailyPrecision), 1e-9)
		assert.Less(t, Accumulate(s, wide, DailyPrecision), 10.0, "must be less than naive last-first across a reset")
	})

	t.Run("empty series", func(t *testing.T) {
		assert.Zero(t, Accumulate(nil, wide, DailyPrecision))
	})

	t.Run("single sample", func(t *testing.T) {
		s := samplesAt(base, time.Minute, 42.0)
		assert.Zero(t, Accumulate(s, wide, DailyPrecision))
	})

	t.Run("samples outside window ignored", func(t *testing.T) {
		s := samplesAt(base, time.Hour, 1.0, 2.0, 3.0, 4.0)
		win := Window{Start: base.Add(30 * time.Minute), End: base.Add(2*time.Hour + 30*time.Minute)}
		// only the 2.0 and 3.0 samples fall inside
		assert.InDelta(t, 1.0, Accumulate(s, win, DailyPrecision), 1e-9)
	})

	t.Run("inclusive end counts boundary sample", func(t *testing.T) {
		s := samplesAt(base, time.Hour, 1.0, 2.0)
		win := Window{Start: base, End: base.Add(time.Hour)}
		assert.Zero(t, Accumulate(s, win, DailyPrecision), "exclusive end drops the boundary sample")
		win.IncludeEnd = true
		assert.InDelta(t, 1.0, Accumulate(s, win, DailyPrecision), 1e-9)
	})

	t.Run("NaN sample does not poison the delta chain", func(t *testing.T) {
		s := samplesAt(base, time.Minute, 10.0, math.NaN(), 10.5)
		// the NaN is excluded from iteration entirely: 10.5-10.0
		assert.InDelta(t, 0.5, Accumulate(s, wide, DailyPrecision), 1e-9)
	})

	t.Run("rounding at monthly precision", func(t *testing.T) {
		s := samplesAt(base, time.Minute, 0, 0.123456)
		assert.Equal(t, 0.12, Accumulate(s, wide, MonthlyPrecision))
		assert.Equal(t, 0.1235, Accumulate(s, wide, DailyPrecision))
	})

	t.Run("plateau contributes nothing", func(t *testing.T) {
		s := samplesAt(base, time.Minute, 5.0, 5.0, 5.0, 5.2)
		assert.InDelta(t, 0.2, Accumulate(s, wide, DailyPrecision), 1e-9)
	})
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 1.3, RoundTo(1.2999999999, 4))
	assert.Equal(t, 0.0, RoundTo(0.00004, 4))
	assert.Equal(t, 33.1, RoundTo(33.099999, 2))
}
