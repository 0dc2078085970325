// Package solar estimates rooftop generation from installed capacity and
// sparse weather observations. The daylight curve is a deliberate
// approximation: a half-sine between sunrise and sunset, not a solar-position
// model.
package solar

import (
	"math"
	"time"

	"github.com/wattbill/wattbill/pkg/energy"
)

// cloudAttenuation is the share of clear-sky output lost at full overcast.
// Full cloud cover still leaves 25% output from diffuse light; clouds alone
// never zero generation.
const cloudAttenuation = 0.75

// Annualized offset constants used for report-level estimates.
const (
	peakSunHoursPerDay = 4
	systemEfficiency   = 0.7
	offsetCapShare     = 0.5
)

// EstimateKW returns the instantaneous generation estimate in kW, rounded to
// 3 decimals. It is 0 when capacity is non-positive or now falls outside
// [sunrise, sunset]. Within daylight the output follows
// sin(pi * elapsed / daylight), peaking mid-day and returning to zero at both
// bounds, attenuated by cloud cover.
func EstimateKW(capacityKW float64, cloudCoverPct int, now, sunrise, sunset time.Time) float64 {
	if capacityKW <= 0 {
		return 0
	}
	if now.Before(sunrise) || now.After(sunset) {
		return 0
	}
	daySeconds := sunset.Sub(sunrise).Seconds()
	if daySeconds <= 0 {
		return 0
	}
	elapsed := now.Sub(sunrise).Seconds()

	solarFactor := math.Sin(math.Pi * elapsed / daySeconds)
	cloudFactor := math.Max(0, 1-(float64(cloudCoverPct)/100)*cloudAttenuation)

	kw := capacityKW * solarFactor * cloudFactor
	return energy.RoundTo(math.Max(kw, 0), 3)
}

// AnnualOffsetKWH estimates how much of a year's household consumption the
// installation covers. Deliberately coarse: capacity at 4 peak hours a day
// for 365 days at 70% efficiency, capped at half the household total. Used
// only for report summaries, never for the per-sample estimate.
func AnnualOffsetKWH(capacityKW, totalKWH float64) (solarKWH, gridKWH float64) {
	estimated := capacityKW * peakSunHoursPerDay * 365 * systemEfficiency
	solarKWH = math.Min(estimated, totalKWH*offsetCapShare)
	gridKWH = math.Max(0, totalKWH-solarKWH)
	return solarKWH, gridKWH
}
