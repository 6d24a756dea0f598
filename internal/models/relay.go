package models

// Relay names one of the three outputs.
type Relay string

const (
	RelayHeating Relay = "heating"
	RelayCooling Relay = "cooling"
	RelayDefrost Relay = "defrost"
)

// AllRelays lists the outputs in write order.
var AllRelays = []Relay{RelayHeating, RelayCooling, RelayDefrost}

// RelayState is the commanded output of the three relays.
// Heating and cooling are never both on, and defrost forces both off.
type RelayState struct {
	Heating bool `json:"heating"`
	Cooling bool `json:"cooling"`
	Defrost bool `json:"defrost"`
}

// Valid reports whether s satisfies the mutual-exclusion invariant.
func (s RelayState) Valid() bool {
	if s.Heating && s.Cooling {
		return false
	}
	if s.Defrost && (s.Heating || s.Cooling) {
		return false
	}
	return true
}

// Normalized returns s repaired to satisfy the invariant: defrost wins over
// heating and cooling, and heating together with cooling collapses to both off.
func (s RelayState) Normalized() RelayState {
	if s.Defrost {
		return RelayState{Defrost: true}
	}
	if s.Heating && s.Cooling {
		return RelayState{}
	}
	return s
}

// Get returns the commanded value of r.
func (s RelayState) Get(r Relay) bool {
	switch r {
	case RelayHeating:
		return s.Heating
	case RelayCooling:
		return s.Cooling
	case RelayDefrost:
		return s.Defrost
	default:
		return false
	}
}
