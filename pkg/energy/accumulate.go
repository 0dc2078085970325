package energy

import (
	"math"

	"github.com/wattbill/wattbill/pkg/types"
)

// Accumulate reconciles a device's cumulative energy counter into net
// consumption over the window, in kWh rounded to the given number of decimal
// places. Samples must be ordered by timestamp ascending.
//
// Meter counters reset in practice (power loss, firmware swaps), so the net
// figure is the sum of positive successive deltas only: a negative delta is
// dropped, never subtracted, and the chain continues from the new counter
// value. An empty or single-sample series yields 0.
func Accumulate(samples []types.MeterSample, win Window, places int) float64 {
	var total float64
	var prev float64
	var havePrev bool
	for _, s := range samples {
		if !win.Contains(s.Timestamp) {
			continue
		}
		cur := s.EnergyKWH
		if math.IsNaN(cur) || math.IsInf(cur, 0) {
			// malformed counter value: skip the sample entirely so it
			// neither feeds a bogus delta nor becomes the new previous
			continue
		}
		if havePrev {
			if delta := cur - prev; delta > 0 {
				total += delta
			}
		}
		prev = cur
		havePrev = true
	}
	return RoundTo(total, places)
}
