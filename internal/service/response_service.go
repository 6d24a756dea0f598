package service

import "time"

// ConfigPatch is a partial configuration update. Nil fields are left unchanged.
type ConfigPatch struct {
	SSID                     *string  `json:"ssid"`
	Password                 *string  `json:"password"`
	DeviceID                 *string  `json:"device_id"`
	ProcessID                *string  `json:"process_id"`
	DefrostMode              *string  `json:"defrost_mode"`
	DefrostSchedule          *string  `json:"defrost_schedule"`
	DefrostTargetTemperature *float64 `json:"defrost_target_temperature"`
	SafetyMinTemperature     *float64 `json:"safety_min_temperature"`
	SafetyMaxTemperature     *float64 `json:"safety_max_temperature"`
	LocalTargetTemperature   *float64 `json:"local_target_temperature"`
	LocalVariance            *float64 `json:"local_variance"`
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "NETWORK", "RELAY", "REMOTE", "CONFIG", "SENSOR"
}
