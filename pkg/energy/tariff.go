package energy

import "github.com/wattbill/wattbill/pkg/types"

const (
	// ProtectionThresholdKWH is the monthly consumption a household must stay
	// strictly below, every month of the trailing window, to keep the
	// subsidized schedule.
	ProtectionThresholdKWH = 200

	// ProtectionWindowMonths is the trailing window checked for protection,
	// current partial month included.
	ProtectionWindowMonths = 6
)

// Tier is one band of the slab tariff schedule. Rates are PKR per kWh; a nil
// rate means the schedule defines no price for that band (a protected
// household above 200 kWh has lost eligibility, an unprotected one below 50
// was never billed at the lifeline rate).
type Tier struct {
	// UpperKWH is the inclusive upper bound of the band. The final tier sets
	// Unbounded instead.
	UpperKWH    float64
	Unbounded   bool
	Protected   *float64
	Unprotected *float64
}

func pkr(v float64) *float64 { return &v }

// Tiers is the slab schedule applied to the current month's consumption.
// Bounds are strictly increasing; exactly one tier applies to any value.
var Tiers = []Tier{
	{UpperKWH: 50, Protected: pkr(3.95)},
	{UpperKWH: 100, Protected: pkr(7.74), Unprotected: pkr(22.44)},
	{UpperKWH: 200, Protected: pkr(13.01), Unprotected: pkr(28.91)},
	{UpperKWH: 300, Unprotected: pkr(33.10)},
	{Unbounded: true, Protected: pkr(33.10), Unprotected: pkr(33.10)},
}

// ResolveTariff maps a monthly consumption figure and protection status to a
// per-kWh rate. The second return is false when the schedule defines no rate
// for that combination.
func ResolveTariff(monthlyKWH float64, protected bool) (float64, bool) {
	for _, t := range Tiers {
		if !t.Unbounded && monthlyKWH > t.UpperKWH {
			continue
		}
		r := t.Unprotected
		if protected {
			r = t.Protected
		}
		if r == nil {
			return 0, false
		}
		return *r, true
	}
	return 0, false
}

// IsProtected reports whether every month of the usage series stayed strictly
// below the protection threshold. It is a pure function of the fetched
// series; callers pass the trailing ProtectionWindowMonths months.
func IsProtected(usage []types.MonthlyUsage) bool {
	if len(usage) == 0 {
		return false
	}
	for _, m := range usage {
		if m.KWH >= ProtectionThresholdKWH {
			return false
		}
	}
	return true
}
