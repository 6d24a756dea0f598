// Package wifi associates the device with a wireless network or turns it
// into a configuration hotspot.
package wifi

import "context"

// Status is the association state reported by a Link.
type Status int

const (
	StatusIdle Status = iota // association in progress
	StatusConnected
	StatusDisconnected
	StatusNoNetwork // the requested ssid is not in range
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusNoNetwork:
		return "no_network"
	default:
		return "idle"
	}
}

// Network is one scan result.
type Network struct {
	SSID   string `json:"ssid"`
	Signal int    `json:"signal"`
}

// Link is the wireless interface. Begin only starts association; callers poll
// Status until it settles.
type Link interface {
	Begin(ctx context.Context, ssid, password string) error
	Status(ctx context.Context) Status
	StartAccessPoint(ctx context.Context, ssid string) error
	Scan(ctx context.Context) ([]Network, error)
	HardwareAddr() string
}
