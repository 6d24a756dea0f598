package models

import "time"

// Event types recorded in the control event history.
const (
	EventNetwork = "NETWORK" // mode transition
	EventRelay   = "RELAY"   // relay state changed
	EventRemote  = "REMOTE"  // backend call failed or process rebound
	EventConfig  = "CONFIG"  // configuration saved or reset
	EventSensor  = "SENSOR"  // probe reported the error sentinel
)

// ControlEvent is a single persisted history entry.
type ControlEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
