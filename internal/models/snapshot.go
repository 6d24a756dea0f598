package models

import "time"

// ControlPath identifies who decided the relay state of a cycle.
type ControlPath string

const (
	PathNone   ControlPath = ""
	PathLocal  ControlPath = "LOCAL"
	PathRemote ControlPath = "REMOTE"
)

// Snapshot is the latest observable state of the controller.
type Snapshot struct {
	ID          int            `json:"id"`
	Readings    SensorReadings `json:"readings"`
	Relays      RelayState     `json:"relays"`
	Network     NetworkStatus  `json:"network"`
	Binding     ProcessBinding `json:"binding"`
	Path        ControlPath    `json:"path,omitempty"`
	ActionTaken string         `json:"action_taken,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
