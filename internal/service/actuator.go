package service

import (
	"fermenstation/internal/hardware"
	"fermenstation/internal/logger"
	"fermenstation/internal/models"
)

// Actuator writes relay states to the hardware. Every Apply re-asserts all
// three outputs, even when nothing changed.
type Actuator struct {
	driver hardware.RelayDriver
	state  *DeviceState
	log    *logger.Logger
}

func NewActuator(driver hardware.RelayDriver, state *DeviceState, log *logger.Logger) *Actuator {
	return &Actuator{driver: driver, state: state, log: log}
}

// Apply normalizes s, writes each relay and records the commanded state.
// A failed write is logged and the remaining relays are still written.
// It returns the state that was commanded.
func (a *Actuator) Apply(s models.RelayState) models.RelayState {
	if !s.Valid() && a.log != nil {
		a.log.Warnw("relay_state_normalized", "heating", s.Heating, "cooling", s.Cooling, "defrost", s.Defrost)
	}
	s = s.Normalized()

	for _, r := range models.AllRelays {
		on := s.Get(r)
		if err := a.driver.Set(r, on); err != nil {
			if a.log != nil {
				a.log.Errorw("relay_write_failed", "relay", string(r), "on", on, "error", err)
			}
			continue
		}
		if a.log != nil {
			a.log.Infow("relay_applied", "relay", string(r), "on", on)
		}
	}
	if a.state != nil {
		a.state.setRelays(s)
	}
	return s
}
