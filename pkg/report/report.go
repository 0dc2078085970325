// Package report aggregates per-device meter series into billing views:
// today's summary, the tiered tariff assessment, and monthly reports. All
// functions are pure over already-fetched data; callers pass the reference
// time explicitly.
package report

import (
	"time"

	"github.com/wattbill/wattbill/pkg/energy"
	"github.com/wattbill/wattbill/pkg/solar"
	"github.com/wattbill/wattbill/pkg/types"
)

const (
	// TariffWindowMonths is how far back the tariff assessment looks; it
	// matches the protection eligibility window.
	TariffWindowMonths = energy.ProtectionWindowMonths

	// ReportWindowMonths is the span of the monthly report view.
	ReportWindowMonths = 12
)

const noUsageMessage = "no usage data available; add devices and collect telemetry first"

// DeviceSeries pairs a device with its meter samples, ordered by timestamp
// ascending, fetched wide enough to cover the windows being aggregated.
type DeviceSeries struct {
	Device  types.Device
	Samples []types.MeterSample
}

// MonthlyTotals sums consumption across all devices for each of the trailing
// months, most recent first. A device with no readings in a window
// contributes 0.
func MonthlyTotals(series []DeviceSeries, ref time.Time, months int) []types.MonthlyUsage {
	wins := energy.MonthWindows(ref, months)
	usage := make([]types.MonthlyUsage, len(wins))
	for i, w := range wins {
		var total float64
		for _, ds := range series {
			total += energy.Accumulate(ds.Samples, w, energy.MonthlyPrecision)
		}
		usage[i] = types.MonthlyUsage{
			Month: w.MonthLabel(),
			KWH:   energy.RoundTo(total, energy.MonthlyPrecision),
		}
	}
	return usage
}

// AssessTariff derives protection status over the trailing window and the
// tiered suggested rate for the current month. An empty device set yields an
// explanatory message rather than an error.
func AssessTariff(series []DeviceSeries, ref time.Time) types.TariffAssessment {
	if len(series) == 0 {
		return types.TariffAssessment{
			MonthlyUsage: []types.MonthlyUsage{},
			Message:      noUsageMessage,
		}
	}

	usage := MonthlyTotals(series, ref, TariffWindowMonths)
	protected := energy.IsProtected(usage)
	currentKWH := usage[0].KWH

	rate, ok := energy.ResolveTariff(currentKWH, protected)
	a := types.TariffAssessment{
		SuggestedRatePKRPerKWH: rate,
		RateApplicable:         ok,
		Protected:              protected,
		CurrentMonthKWH:        currentKWH,
		MonthlyUsage:           usage,
	}
	if !ok {
		a.Message = "no applicable rate for this usage level"
	}
	return a
}

// SummarizeToday computes per-device consumption since local midnight,
// priced at the stored flat rate. The window is inclusive of now so the
// sample taken at the query instant counts.
func SummarizeToday(series []DeviceSeries, now time.Time, flatRatePKR float64) types.TodaySummary {
	win := energy.TodayWindow(now)
	out := types.TodaySummary{
		Date:            now.Format("2006-01-02"),
		Timezone:        now.Location().String(),
		TariffPKRPerKWH: flatRatePKR,
		Devices:         make([]types.DeviceToday, 0, len(series)),
	}

	var home float64
	for _, ds := range series {
		kwh := energy.Accumulate(ds.Samples, win, energy.DailyPrecision)
		home += kwh
		out.Devices = append(out.Devices, types.DeviceToday{
			DeviceID: ds.Device.ID,
			Name:     ds.Device.Name,
			TodayKWH: kwh,
			CostPKR:  energy.RoundTo(kwh*flatRatePKR, 2),
		})
	}

	out.HomeTotalKWH = energy.RoundTo(home, energy.DailyPrecision)
	out.HomeTotalCostPKR = energy.RoundTo(out.HomeTotalKWH*flatRatePKR, 2)
	return out
}

// BuildSummary assembles the 12-month report: per-month usage and cost at
// the flat rate, per-device breakdown, totals, averages, and the coarse
// solar/grid split when an installation is enabled.
func BuildSummary(series []DeviceSeries, ref time.Time, flatRatePKR float64, solarCfg types.SolarConfig) types.ReportSummary {
	if len(series) == 0 {
		return types.ReportSummary{
			MonthlyReports:  []types.MonthlyReport{},
			DeviceBreakdown: []types.DeviceUsage{},
			Message:         noUsageMessage,
		}
	}

	wins := energy.MonthWindows(ref, ReportWindowMonths)

	reports := make([]types.MonthlyReport, 0, len(wins))
	var totalKWH, totalCost float64
	for _, w := range wins {
		var kwh float64
		for _, ds := range series {
			kwh += energy.Accumulate(ds.Samples, w, energy.MonthlyPrecision)
		}
		kwh = energy.RoundTo(kwh, energy.MonthlyPrecision)
		cost := energy.RoundTo(kwh*flatRatePKR, 2)
		totalKWH += kwh
		totalCost += cost
		reports = append(reports, types.MonthlyReport{
			Month:     w.MonthLabel(),
			MonthName: w.MonthName(),
			KWH:       kwh,
			CostPKR:   cost,
		})
	}

	breakdown := make([]types.DeviceUsage, 0, len(series))
	for _, ds := range series {
		var kwh float64
		// accumulate per month so counter resets at month boundaries are
		// handled the same way as the monthly reports
		for _, w := range wins {
			kwh += energy.Accumulate(ds.Samples, w, energy.MonthlyPrecision)
		}
		kwh = energy.RoundTo(kwh, energy.MonthlyPrecision)
		breakdown = append(breakdown, types.DeviceUsage{
			DeviceID: ds.Device.ID,
			Name:     ds.Device.Name,
			Room:     ds.Device.Room,
			KWH:      kwh,
			CostPKR:  energy.RoundTo(kwh*flatRatePKR, 2),
		})
	}

	sum := types.ReportSummary{
		MonthlyReports:  reports,
		TotalKWH:        energy.RoundTo(totalKWH, energy.MonthlyPrecision),
		TotalCostPKR:    energy.RoundTo(totalCost, energy.MonthlyPrecision),
		DeviceBreakdown: breakdown,
	}
	if n := len(reports); n > 0 {
		sum.AverageMonthlyKWH = energy.RoundTo(totalKWH/float64(n), energy.MonthlyPrecision)
		sum.AverageMonthlyCostPKR = energy.RoundTo(totalCost/float64(n), energy.MonthlyPrecision)
	}

	if solarCfg.Enabled {
		solarKWH, gridKWH := solar.AnnualOffsetKWH(solarCfg.InstalledCapacityKW, totalKWH)
		sum.SolarKWH = energy.RoundTo(solarKWH, energy.MonthlyPrecision)
		sum.GridKWH = energy.RoundTo(gridKWH, energy.MonthlyPrecision)
	} else {
		sum.GridKWH = sum.TotalKWH
	}
	return sum
}
