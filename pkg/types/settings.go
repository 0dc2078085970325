package types

import "fmt"

// MaxTariffPKRPerKWH bounds the user-entered flat rate. Anything above this
// is assumed to be a data-entry mistake.
const MaxTariffPKRPerKWH = 50

// Settings represents per-user configuration stored in the database.
type Settings struct {
	// TariffPKRPerKWH is the flat rate the user actually pays, used to price
	// reports. It is not the tiered suggested rate.
	TariffPKRPerKWH float64 `json:"tariffPKRPerKWH"`

	Solar SolarConfig `json:"solar"`
}

// SolarConfig describes the user's rooftop installation.
type SolarConfig struct {
	Enabled             bool    `json:"enabled"`
	InstalledCapacityKW float64 `json:"installedCapacityKW"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
}

// Validate checks the settings for values we refuse to store.
func (s Settings) Validate() error {
	if s.TariffPKRPerKWH < 0 {
		return fmt.Errorf("tariff cannot be negative")
	}
	if s.TariffPKRPerKWH > MaxTariffPKRPerKWH {
		return fmt.Errorf("tariff exceeds %d PKR/kWh", MaxTariffPKRPerKWH)
	}
	if s.Solar.InstalledCapacityKW < 0 {
		return fmt.Errorf("solar capacity cannot be negative")
	}
	if s.Solar.Latitude < -90 || s.Solar.Latitude > 90 {
		return fmt.Errorf("latitude out of range")
	}
	if s.Solar.Longitude < -180 || s.Solar.Longitude > 180 {
		return fmt.Errorf("longitude out of range")
	}
	return nil
}
