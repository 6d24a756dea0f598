package wifi

import (
	"context"
	"sort"
	"sync"
)

// Simulated is an in-memory Link. Known networks associate immediately when
// the password matches; a wrong password leaves the link idle until the
// caller times out.
type Simulated struct {
	mu       sync.Mutex
	networks map[string]string
	status   Status
	apSSID   string
	begins   int
	hwAddr   string
}

func NewSimulated(hwAddr string, networks map[string]string) *Simulated {
	if networks == nil {
		networks = map[string]string{}
	}
	return &Simulated{networks: networks, status: StatusDisconnected, hwAddr: hwAddr}
}

func (s *Simulated) Begin(_ context.Context, ssid, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
	s.apSSID = ""
	pw, ok := s.networks[ssid]
	switch {
	case !ok:
		s.status = StatusNoNetwork
	case pw != password:
		s.status = StatusIdle
	default:
		s.status = StatusConnected
	}
	return nil
}

func (s *Simulated) Status(context.Context) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Simulated) StartAccessPoint(_ context.Context, ssid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apSSID = ssid
	s.status = StatusDisconnected
	return nil
}

func (s *Simulated) Scan(context.Context) ([]Network, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nets := make([]Network, 0, len(s.networks))
	for ssid := range s.networks {
		nets = append(nets, Network{SSID: ssid, Signal: 70})
	}
	sort.Slice(nets, func(i, j int) bool { return nets[i].SSID < nets[j].SSID })
	return nets, nil
}

func (s *Simulated) HardwareAddr() string { return s.hwAddr }

// Drop simulates losing the association.
func (s *Simulated) Drop() {
	s.mu.Lock()
	s.status = StatusDisconnected
	s.mu.Unlock()
}

// Restore simulates the link coming back without a new Begin.
func (s *Simulated) Restore() {
	s.mu.Lock()
	s.status = StatusConnected
	s.mu.Unlock()
}

// AccessPoint returns the hotspot ssid, empty when not serving one.
func (s *Simulated) AccessPoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apSSID
}

// Begins counts association attempts.
func (s *Simulated) Begins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begins
}
