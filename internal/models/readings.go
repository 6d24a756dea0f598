package models

// SensorError is the value a disconnected temperature sensor reports.
const SensorError = -127.0

// GravityAbsent marks a missing gravity reading.
const GravityAbsent = -1.0

// SensorID names one of the three temperature probes.
type SensorID string

const (
	SensorFermenter SensorID = "fermenter"
	SensorAmbient   SensorID = "ambient"
	SensorDefrost   SensorID = "defrost"
)

// AllSensors lists the probes in read order.
var AllSensors = []SensorID{SensorFermenter, SensorAmbient, SensorDefrost}

// SensorReadings holds one reading per probe, °C or SensorError.
type SensorReadings struct {
	Fermenter float64 `json:"temp_fermenter"`
	Ambient   float64 `json:"temp_ambient"`
	Defrost   float64 `json:"temp_defrost"`
	Gravity   float64 `json:"gravity"`
}

// Get returns the reading for id.
func (r SensorReadings) Get(id SensorID) float64 {
	switch id {
	case SensorFermenter:
		return r.Fermenter
	case SensorAmbient:
		return r.Ambient
	case SensorDefrost:
		return r.Defrost
	default:
		return SensorError
	}
}

// Set stores v as the reading for id.
func (r *SensorReadings) Set(id SensorID, v float64) {
	switch id {
	case SensorFermenter:
		r.Fermenter = v
	case SensorAmbient:
		r.Ambient = v
	case SensorDefrost:
		r.Defrost = v
	}
}

// IsSensorError reports whether v is the disconnected sentinel.
func IsSensorError(v float64) bool {
	return v == SensorError
}
