package service

import (
	"sync"
	"time"

	"fermenstation/internal/models"
)

// DeviceState is the single owned record of mutable controller state. The
// control loop is its only writer; HTTP handlers read copies.
type DeviceState struct {
	mu sync.RWMutex

	config   models.DeviceConfig
	binding  models.ProcessBinding
	network  models.NetworkStatus
	relays   models.RelayState
	readings models.SensorReadings
	path     models.ControlPath
	action   string
	updated  time.Time
}

// NewDeviceState starts Disconnected with the process binding inactive until
// discovery confirms it.
func NewDeviceState(cfg models.DeviceConfig) *DeviceState {
	return &DeviceState{
		config:  cfg,
		binding: models.ProcessBinding{ProcessID: cfg.ProcessID},
		network: models.NetworkStatus{Mode: models.ModeDisconnected},
		readings: models.SensorReadings{
			Fermenter: models.SensorError,
			Ambient:   models.SensorError,
			Defrost:   models.SensorError,
			Gravity:   models.GravityAbsent,
		},
	}
}

func (d *DeviceState) Config() models.DeviceConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

func (d *DeviceState) SetConfig(c models.DeviceConfig) {
	d.mu.Lock()
	d.config = c
	d.mu.Unlock()
}

func (d *DeviceState) Binding() models.ProcessBinding {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.binding
}

func (d *DeviceState) SetBinding(b models.ProcessBinding) {
	d.mu.Lock()
	d.binding = b
	d.mu.Unlock()
}

func (d *DeviceState) Network() models.NetworkStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.network
}

func (d *DeviceState) setNetwork(n models.NetworkStatus) {
	d.mu.Lock()
	d.network = n
	d.mu.Unlock()
}

func (d *DeviceState) Relays() models.RelayState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.relays
}

func (d *DeviceState) setRelays(r models.RelayState) {
	d.mu.Lock()
	d.relays = r
	d.mu.Unlock()
}

func (d *DeviceState) Readings() models.SensorReadings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.readings
}

func (d *DeviceState) setReadings(r models.SensorReadings, at time.Time) {
	d.mu.Lock()
	d.readings = r
	d.updated = at
	d.mu.Unlock()
}

func (d *DeviceState) setDecision(p models.ControlPath, action string) {
	d.mu.Lock()
	d.path = p
	d.action = action
	d.mu.Unlock()
}

// Snapshot returns a consistent copy of the observable state.
func (d *DeviceState) Snapshot() models.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return models.Snapshot{
		ID:          1,
		Readings:    d.readings,
		Relays:      d.relays,
		Network:     d.network,
		Binding:     d.binding,
		Path:        d.path,
		ActionTaken: d.action,
		UpdatedAt:   d.updated,
	}
}
