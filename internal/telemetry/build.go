package telemetry

import (
	"fermenstation/internal/config"
	"fermenstation/internal/logger"
)

// FromSettings builds the sinks that are configured. A sink that cannot be
// created is logged and skipped.
func FromSettings(s config.TelemetrySettings, deviceID string, log *logger.Logger) Multi {
	var sinks Multi
	if s.MQTTBroker != "" {
		if m, err := NewMQTTSink(s, deviceID, log); err != nil {
			log.Warnw("telemetry_sink_disabled", "sink", "mqtt", "error", err)
		} else {
			sinks = append(sinks, m)
		}
	}
	if s.InfluxURL != "" {
		if in, err := NewInfluxSink(s, deviceID); err != nil {
			log.Warnw("telemetry_sink_disabled", "sink", "influx", "error", err)
		} else {
			sinks = append(sinks, in)
		}
	}
	return sinks
}
