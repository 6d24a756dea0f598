package models

// DefrostMode selects how the defrost relay is driven.
type DefrostMode string

const (
	DefrostDisabled      DefrostMode = "disabled"
	DefrostByTemperature DefrostMode = "by_temperature"
)

// Factory defaults, used when the store holds no value for a key.
const (
	DefaultDefrostSchedule          = "00:00"
	DefaultDefrostTargetTemperature = 5.0
	DefaultSafetyMinTemperature     = 0.0
	DefaultSafetyMaxTemperature     = 35.0
	DefaultLocalTargetTemperature   = 20.0
	DefaultLocalVariance            = 0.5
)

// DeviceConfig is the persisted device configuration.
type DeviceConfig struct {
	SSID                     string      `json:"ssid"`
	Password                 string      `json:"-"` // never exposed
	DeviceID                 string      `json:"device_id"`
	ProcessID                string      `json:"process_id"`
	DefrostMode              DefrostMode `json:"defrost_mode"`
	DefrostSchedule          string      `json:"defrost_schedule"` // HH:MM, stored only
	DefrostTargetTemperature float64     `json:"defrost_target_temperature"`
	SafetyMinTemperature     float64     `json:"safety_min_temperature"`
	SafetyMaxTemperature     float64     `json:"safety_max_temperature"`
	LocalTargetTemperature   float64     `json:"local_target_temperature"`
	LocalVariance            float64     `json:"local_variance"`
}

// DefaultDeviceConfig returns a configuration with no credentials and factory thresholds.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		DefrostMode:              DefrostDisabled,
		DefrostSchedule:          DefaultDefrostSchedule,
		DefrostTargetTemperature: DefaultDefrostTargetTemperature,
		SafetyMinTemperature:     DefaultSafetyMinTemperature,
		SafetyMaxTemperature:     DefaultSafetyMaxTemperature,
		LocalTargetTemperature:   DefaultLocalTargetTemperature,
		LocalVariance:            DefaultLocalVariance,
	}
}

// HasCredentials reports whether both ssid and password are set.
func (c DeviceConfig) HasCredentials() bool {
	return c.SSID != "" && c.Password != ""
}

// ProcessBinding associates the device with a backend fermentation process.
type ProcessBinding struct {
	ProcessID string `json:"process_id"`
	Active    bool   `json:"active"`
}

// Bound reports whether the binding selects the remote control path.
func (b ProcessBinding) Bound() bool {
	return b.Active && b.ProcessID != ""
}
