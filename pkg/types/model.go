package types

import "time"

// User represents an authenticated account. The ID is the OIDC subject.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Device represents a metered appliance or circuit owned by a user.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Room string `json:"room,omitempty"`
	Type string `json:"type,omitempty"`

	// Token authenticates telemetry uploads from the device itself
	// (X-Device-Token header). It is never returned on list endpoints.
	Token string `json:"token,omitempty"`

	UserID    string    `json:"userID"`
	CreatedAt time.Time `json:"createdAt"`
}

// MeterSample is one raw telemetry reading from a device. EnergyKWH is the
// meter's cumulative energy counter, not a per-interval delta. The counter is
// monotonically intended but resets in practice (power loss, firmware).
type MeterSample struct {
	Timestamp time.Time `json:"timestamp"`
	VoltageV  float64   `json:"voltageV"`
	CurrentA  float64   `json:"currentA"`
	PowerW    float64   `json:"powerW"`
	EnergyKWH float64   `json:"energyKWH"`
}

// MonthlyUsage is the household's total consumption for one calendar month.
type MonthlyUsage struct {
	// Month is formatted as "2006-01".
	Month string  `json:"month"`
	KWH   float64 `json:"kwh"`
}

// MonthlyReport is a priced MonthlyUsage using the user's stored flat rate.
type MonthlyReport struct {
	Month     string  `json:"month"`
	MonthName string  `json:"monthName"`
	KWH       float64 `json:"kwh"`
	CostPKR   float64 `json:"costPKR"`
}

// DeviceUsage is one device's total consumption over a report range.
type DeviceUsage struct {
	DeviceID string  `json:"deviceID"`
	Name     string  `json:"name"`
	Room     string  `json:"room"`
	KWH      float64 `json:"kwh"`
	CostPKR  float64 `json:"costPKR"`
}

// TariffAssessment is the output of the tiered tariff calculator. The
// suggested rate is distinct from the stored flat rate used for reports: the
// flat rate prices bills, the suggested rate is what the tier table says the
// user should be paying this month.
type TariffAssessment struct {
	// SuggestedRatePKRPerKWH is only meaningful when RateApplicable is true.
	SuggestedRatePKRPerKWH float64 `json:"suggestedRatePKRPerKWH"`
	RateApplicable         bool    `json:"rateApplicable"`

	Protected       bool           `json:"protected"`
	CurrentMonthKWH float64        `json:"currentMonthKWH"`
	MonthlyUsage    []MonthlyUsage `json:"monthlyUsage"`

	// Message explains an empty or inapplicable result.
	Message string `json:"message,omitempty"`
}

// ReportSummary bundles the 12-month report view.
type ReportSummary struct {
	MonthlyReports        []MonthlyReport `json:"monthlyReports"`
	TotalKWH              float64         `json:"totalKWH"`
	TotalCostPKR          float64         `json:"totalCostPKR"`
	AverageMonthlyKWH     float64         `json:"averageMonthlyKWH"`
	AverageMonthlyCostPKR float64         `json:"averageMonthlyCostPKR"`
	DeviceBreakdown       []DeviceUsage   `json:"deviceBreakdown"`

	// SolarKWH is the coarse annualized generation estimate, GridKWH the
	// remainder drawn from the grid.
	SolarKWH float64 `json:"solarKWH"`
	GridKWH  float64 `json:"gridKWH"`

	Message string `json:"message,omitempty"`
}

// DeviceToday is one device's consumption since local midnight.
type DeviceToday struct {
	DeviceID string  `json:"deviceID"`
	Name     string  `json:"name"`
	TodayKWH float64 `json:"todayKWH"`
	CostPKR  float64 `json:"costPKR"`
}

// TodaySummary is the dashboard view of consumption since local midnight,
// priced at the stored flat rate.
type TodaySummary struct {
	Date             string        `json:"date"`
	Timezone         string        `json:"timezone"`
	TariffPKRPerKWH  float64       `json:"tariffPKRPerKWH"`
	Devices          []DeviceToday `json:"devices"`
	HomeTotalKWH     float64       `json:"homeTotalKWH"`
	HomeTotalCostPKR float64       `json:"homeTotalCostPKR"`
}

// WeatherSnapshot is one observation from the weather provider, cached by
// coordinates. It is valid for reuse only while fresh (see weather package).
type WeatherSnapshot struct {
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	CloudCoverPct int       `json:"cloudCoverPct"`
	Sunrise       time.Time `json:"sunrise"`
	Sunset        time.Time `json:"sunset"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// SolarSample is a point-in-time generation estimate persisted for charts.
type SolarSample struct {
	Timestamp     time.Time `json:"timestamp"`
	SolarKW       float64   `json:"solarKW"`
	HomeKW        float64   `json:"homeKW"`
	GridImportKW  float64   `json:"gridImportKW"`
	CloudCoverPct int       `json:"cloudCoverPct"`
}
