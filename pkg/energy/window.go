package energy

import (
	"math"
	"time"
)

// Rounding precision for derived energy figures. Daily figures keep more
// digits because per-interval deltas are tiny; monthly figures match what
// shows up on a bill.
const (
	DailyPrecision   = 4
	MonthlyPrecision = 2
)

// Window is a time interval over which net consumption is computed.
// Calendar-month windows are half-open [Start, End); the "today" window
// includes its end so the sample taken at the query instant still counts.
// Both behaviors are load-bearing, do not unify them.
type Window struct {
	Start      time.Time
	End        time.Time
	IncludeEnd bool
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	if w.IncludeEnd {
		return !t.After(w.End)
	}
	return t.Before(w.End)
}

// MonthLabel returns the "YYYY-MM" label of the month containing the window
// start.
func (w Window) MonthLabel() string {
	return w.Start.Format("2006-01")
}

// MonthName returns a human-friendly label like "Jan 2026".
func (w Window) MonthName() string {
	return w.Start.Format("Jan 2006")
}

// TodayWindow spans local midnight through now, inclusive of now.
func TodayWindow(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: now, IncludeEnd: true}
}

// MonthWindows returns n calendar-month windows in ref's location, most
// recent first. Index 0 is the month containing ref; each window spans the
// full month so filtering naturally truncates to available data. Walking
// backward rolls year boundaries (January steps to the prior December).
func MonthWindows(ref time.Time, n int) []Window {
	if n <= 0 {
		return nil
	}
	wins := make([]Window, 0, n)
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	for i := 0; i < n; i++ {
		wins = append(wins, Window{Start: start, End: start.AddDate(0, 1, 0)})
		start = start.AddDate(0, -1, 0)
	}
	return wins
}

// RoundTo rounds v to the given number of decimal places. Every derived
// energy or monetary quantity is rounded at its declared precision before
// leaving this package so results don't depend on accumulation order.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
