package models

import "time"

// NetworkMode is the connectivity state of the device. Exactly one holds at a time.
type NetworkMode string

const (
	ModeDisconnected NetworkMode = "DISCONNECTED"
	ModeConnecting   NetworkMode = "CONNECTING"
	ModeStation      NetworkMode = "STATION"
	ModeAccessPoint  NetworkMode = "ACCESS_POINT"
)

// ConnectionHealth tracks consecutive connection failures.
type ConnectionHealth struct {
	Failures    int       `json:"failures"`
	LastSuccess time.Time `json:"last_success,omitempty"`
}

// NetworkStatus is the connectivity part of the device snapshot.
type NetworkStatus struct {
	Mode   NetworkMode      `json:"mode"`
	Health ConnectionHealth `json:"health"`
}
