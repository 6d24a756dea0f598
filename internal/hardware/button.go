package hardware

import (
	"sync/atomic"

	"gobot.io/x/gobot/v2/platforms/raspi"
)

// Button reports whether the factory-reset button is currently held.
type Button interface {
	Pressed() (bool, error)
}

type digitalReader interface {
	DigitalRead(pin string) (int, error)
}

// GPIOButton reads an active-low push button with a pull-up.
type GPIOButton struct {
	port digitalReader
	pin  string
}

func NewGPIOButton(a *raspi.Adaptor, pin string) *GPIOButton {
	return &GPIOButton{port: a, pin: pin}
}

func (b *GPIOButton) Pressed() (bool, error) {
	v, err := b.port.DigitalRead(b.pin)
	if err != nil {
		return false, err
	}
	return v == 0, nil
}

// SimulatedButton is toggled by tests or a bench harness.
type SimulatedButton struct {
	held atomic.Bool
}

func (b *SimulatedButton) Press()   { b.held.Store(true) }
func (b *SimulatedButton) Release() { b.held.Store(false) }

func (b *SimulatedButton) Pressed() (bool, error) {
	return b.held.Load(), nil
}
