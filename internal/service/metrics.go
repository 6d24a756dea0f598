package service

import (
	"time"

	"fermenstation/internal/models"
)

// Metrics receives controller observations. *metric.Metric implements it.
type Metrics interface {
	ObserveReadings(r models.SensorReadings)
	ObserveRelays(s models.RelayState)
	ObserveNetwork(n models.NetworkStatus)
	Cycle(p models.ControlPath)
	ErrorCounter(source string)
	Timing(start time.Time, rpc string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveReadings(models.SensorReadings) {}
func (nopMetrics) ObserveRelays(models.RelayState)       {}
func (nopMetrics) ObserveNetwork(models.NetworkStatus)   {}
func (nopMetrics) Cycle(models.ControlPath)              {}
func (nopMetrics) ErrorCounter(string)                   {}
func (nopMetrics) Timing(time.Time, string)              {}
