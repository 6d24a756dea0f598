package hardware

import (
	"fmt"
	"time"

	"fermenstation/internal/config"
	"fermenstation/internal/models"

	"gobot.io/x/gobot/v2/platforms/raspi"
)

// Board bundles the peripherals the controller needs.
type Board struct {
	Relays  RelayDriver
	Sensors SensorBus
	Button  Button

	close func() error
}

// Close releases the GPIO adaptor, if any.
func (b *Board) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the board selected by the hardware driver setting.
func Open(s config.HardwareSettings) (*Board, error) {
	switch s.Driver {
	case config.DriverSimulated, "":
		return &Board{
			Relays:  NewSimulatedRelays(),
			Sensors: NewSimulatedBus(time.Now),
			Button:  &SimulatedButton{},
		}, nil
	case config.DriverRaspi:
		return openRaspi(s)
	default:
		return nil, fmt.Errorf("unknown hardware driver %q", s.Driver)
	}
}

func openRaspi(s config.HardwareSettings) (*Board, error) {
	a := raspi.NewAdaptor()
	if err := a.Connect(); err != nil {
		return nil, fmt.Errorf("connect raspi adaptor: %w", err)
	}
	relays, err := NewGPIORelays(a, RelayPins{
		Heating: s.HeatingPin,
		Cooling: s.CoolingPin,
		Defrost: s.DefrostPin,
	}, s.RelayActiveLow)
	if err != nil {
		_ = a.Finalize()
		return nil, err
	}
	return &Board{
		Relays: relays,
		Sensors: NewW1Bus(s.W1Dir, map[models.SensorID]string{
			models.SensorFermenter: s.FermenterProbe,
			models.SensorAmbient:   s.AmbientProbe,
			models.SensorDefrost:   s.DefrostProbe,
		}),
		Button: NewGPIOButton(a, s.ResetPin),
		close:  a.Finalize,
	}, nil
}
