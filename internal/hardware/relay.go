// Package hardware drives the relay outputs, the temperature probes and the
// reset button, either on a Raspberry Pi through gobot or simulated in memory.
package hardware

import (
	"fmt"
	"sync"

	"fermenstation/internal/models"

	"gobot.io/x/gobot/v2/drivers/gpio"
	"gobot.io/x/gobot/v2/platforms/raspi"
)

// RelayDriver writes a single relay output.
type RelayDriver interface {
	Set(r models.Relay, on bool) error
}

// RelayPins maps each relay to a header pin.
type RelayPins struct {
	Heating string
	Cooling string
	Defrost string
}

func (p RelayPins) pin(r models.Relay) string {
	switch r {
	case models.RelayHeating:
		return p.Heating
	case models.RelayCooling:
		return p.Cooling
	default:
		return p.Defrost
	}
}

// GPIORelays drives the relays through gobot relay drivers.
type GPIORelays struct {
	drivers   map[models.Relay]*gpio.RelayDriver
	activeLow bool
}

// NewGPIORelays creates and starts one relay driver per output on the adaptor.
// Boards wired active low get inverted writes.
func NewGPIORelays(a *raspi.Adaptor, pins RelayPins, activeLow bool) (*GPIORelays, error) {
	g := &GPIORelays{drivers: make(map[models.Relay]*gpio.RelayDriver, len(models.AllRelays)), activeLow: activeLow}
	for _, r := range models.AllRelays {
		d := gpio.NewRelayDriver(a, pins.pin(r))
		if err := d.Start(); err != nil {
			return nil, fmt.Errorf("start %s relay on pin %s: %w", r, pins.pin(r), err)
		}
		g.drivers[r] = d
	}
	return g, nil
}

func (g *GPIORelays) Set(r models.Relay, on bool) error {
	d, ok := g.drivers[r]
	if !ok {
		return fmt.Errorf("unknown relay %q", r)
	}
	if on != g.activeLow {
		return d.On()
	}
	return d.Off()
}

// SimulatedRelays records writes in memory.
type SimulatedRelays struct {
	mu     sync.Mutex
	state  models.RelayState
	writes int
	fail   map[models.Relay]error
}

func NewSimulatedRelays() *SimulatedRelays {
	return &SimulatedRelays{}
}

func (s *SimulatedRelays) Set(r models.Relay, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if err := s.fail[r]; err != nil {
		return err
	}
	switch r {
	case models.RelayHeating:
		s.state.Heating = on
	case models.RelayCooling:
		s.state.Cooling = on
	case models.RelayDefrost:
		s.state.Defrost = on
	default:
		return fmt.Errorf("unknown relay %q", r)
	}
	return nil
}

// FailOn makes every later write to r return err. A nil err clears it.
func (s *SimulatedRelays) FailOn(r models.Relay, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail == nil {
		s.fail = make(map[models.Relay]error)
	}
	s.fail[r] = err
}

// State returns the current physical outputs.
func (s *SimulatedRelays) State() models.RelayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Writes returns the number of Set calls so far.
func (s *SimulatedRelays) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
