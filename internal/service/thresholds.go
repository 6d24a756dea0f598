package service

import "fermenstation/internal/models"

// LocalDecision computes the relay state from readings and thresholds in a
// fixed priority: defrost, safety bounds, then the target band. The returned
// string describes the action for the log only.
//
// Readings are compared as-is, so a disconnected probe (-127) takes part in
// the comparisons like any other value.
func LocalDecision(r models.SensorReadings, c models.DeviceConfig) (models.RelayState, string) {
	if c.DefrostMode == models.DefrostByTemperature && r.Defrost < c.DefrostTargetTemperature {
		return models.RelayState{Defrost: true}, "defrost by temperature"
	}

	switch {
	case r.Fermenter < c.SafetyMinTemperature:
		return models.RelayState{Heating: true}, "safety heating: below minimum"
	case r.Fermenter > c.SafetyMaxTemperature:
		return models.RelayState{Cooling: true}, "safety cooling: above maximum"
	case r.Fermenter < c.LocalTargetTemperature-c.LocalVariance:
		return models.RelayState{Heating: true}, "heating: below target band"
	case r.Fermenter > c.LocalTargetTemperature+c.LocalVariance:
		return models.RelayState{Cooling: true}, "cooling: above target band"
	default:
		return models.RelayState{}, "within target band"
	}
}
